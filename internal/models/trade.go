package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Trade struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `json:"price"`
	Duration    string          `json:"duration"`
	TradeType   string          `json:"trade_type"`
	UserID      ID              `json:"user_id"`
}

// TradeDraft is an unsaved trade exactly as the user typed it.
type TradeDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Location    string `json:"location"`
	Price       string `json:"price"`
	Duration    string `json:"duration"`
	TradeType   string `json:"trade_type"`
	UserID      string `json:"user_id"`
}

// TradePayload is the body sent to the trade service on create.
type TradePayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `json:"price"`
	Duration    string          `json:"duration"`
	TradeType   string          `json:"trade_type"`
	UserID      string          `json:"user_id"`
}

const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidPrice   = "Price must be a non-negative number"
)

// NewTradeDraft returns the seeded initial state of the creation form.
func NewTradeDraft(userID string) TradeDraft {
	return TradeDraft{UserID: userID}
}

// DraftFields are the required form fields, in form order.
var DraftFields = []string{"name", "description", "image", "location", "price", "duration", "trade_type"}

// Missing lists the required fields that are empty, in form order.
func (d TradeDraft) Missing() []string {
	var missing []string
	for _, f := range DraftFields {
		if strings.TrimSpace(d.Field(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Field returns the value of a form field by name.
func (d TradeDraft) Field(field string) string {
	switch field {
	case "name":
		return d.Name
	case "description":
		return d.Description
	case "image":
		return d.Image
	case "location":
		return d.Location
	case "price":
		return d.Price
	case "duration":
		return d.Duration
	case "trade_type":
		return d.TradeType
	case "user_id":
		return d.UserID
	}
	return ""
}

// Set assigns a single field by its form name. Unknown names are ignored.
func (d *TradeDraft) Set(field, value string) {
	switch field {
	case "name":
		d.Name = value
	case "description":
		d.Description = value
	case "image":
		d.Image = value
	case "location":
		d.Location = value
	case "price":
		d.Price = value
	case "duration":
		d.Duration = value
	case "trade_type":
		d.TradeType = value
	}
}

// Payload converts the draft into the create request body.
func (d TradeDraft) Payload() (TradePayload, error) {
	price, err := ParsePrice(d.Price)
	if err != nil {
		return TradePayload{}, err
	}
	return TradePayload{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Image:       strings.TrimSpace(d.Image),
		Location:    strings.TrimSpace(d.Location),
		Price:       price,
		Duration:    strings.TrimSpace(d.Duration),
		TradeType:   strings.TrimSpace(d.TradeType),
		UserID:      d.UserID,
	}, nil
}

func (d *TradeDraft) UnmarshalJSON(data []byte) error {
	type alias TradeDraft
	var aux struct {
		alias
		Price  looseString `json:"price"`
		UserID looseString `json:"user_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = TradeDraft(aux.alias)
	d.Price = string(aux.Price)
	d.UserID = string(aux.UserID)
	return nil
}

// ParsePrice accepts a decimal string that is zero or positive.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, &ValidationError{Message: MsgInvalidPrice, Fields: []string{"price"}}
	}
	return price, nil
}

// looseString decodes either a JSON string or a JSON number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}
