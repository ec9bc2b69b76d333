// Package forms holds the per-request state of the trade forms: the draft as
// typed, client-side validation and the reaction to a submission outcome.
package forms

import (
	"context"
	"errors"
	"net/url"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
)

// RouteTradeList is where a successful creation navigates to.
const RouteTradeList = "/trade"

// Submitter dispatches a validated draft. *services.TradeStore satisfies it.
type Submitter interface {
	AddTrade(ctx context.Context, who session.Provider, draft models.TradeDraft) (models.Trade, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// TradeForm is the creation form. Its draft starts from the seed (the
// session's user id, every other field empty) and returns to it after a
// successful submission.
type TradeForm struct {
	Draft  models.TradeDraft
	Error  string
	Fields []string

	seed      models.TradeDraft
	navigated bool
}

func NewTradeForm(who session.Provider) *TradeForm {
	seed := models.NewTradeDraft(who.UserID())
	return &TradeForm{Draft: seed, seed: seed}
}

// Set updates one field of the draft. user_id is not editable.
func (f *TradeForm) Set(field, value string) {
	f.Draft.Set(field, value)
}

// Bind copies the posted form values into the draft.
func (f *TradeForm) Bind(values url.Values) {
	for _, field := range models.DraftFields {
		f.Set(field, values.Get(field))
	}
}

// Fill copies every editable field of d into the draft.
func (f *TradeForm) Fill(d models.TradeDraft) {
	for _, field := range models.DraftFields {
		f.Set(field, d.Field(field))
	}
}

// Validate checks the draft without dispatching anything.
func (f *TradeForm) Validate() error {
	if missing := f.Draft.Missing(); len(missing) > 0 {
		return &models.ValidationError{Message: models.MsgRequiredFields, Fields: missing}
	}
	if _, err := models.ParsePrice(f.Draft.Price); err != nil {
		return err
	}
	return nil
}

// Submit validates the draft and, when valid, dispatches it. This is the local
// submission result: success resets the draft and clears the error, failure
// keeps the draft and records the reason.
func (f *TradeForm) Submit(ctx context.Context, who session.Provider, store Submitter) (models.Trade, error) {
	if err := f.Validate(); err != nil {
		f.fail(err)
		return models.Trade{}, err
	}
	created, err := store.AddTrade(ctx, who, f.Draft)
	if err != nil {
		f.fail(err)
		return models.Trade{}, err
	}
	f.Reset()
	return created, nil
}

// FollowStoreStatus reacts to the store-wide status, independent of the local
// result. The first time it sees success it navigates to the trade list and
// reports true; later calls do nothing.
func (f *TradeForm) FollowStoreStatus(status services.Status, nav Navigator) bool {
	if f.navigated || status != services.StatusSuccess {
		return false
	}
	f.navigated = true
	nav.Navigate(RouteTradeList)
	return true
}

func (f *TradeForm) Reset() {
	f.Draft = f.seed
	f.Error = ""
	f.Fields = nil
}

// Invalid reports whether field was flagged by the last failed submission.
func (f *TradeForm) Invalid(field string) bool {
	for _, name := range f.Fields {
		if name == field {
			return true
		}
	}
	return false
}

func (f *TradeForm) fail(err error) {
	f.Error = services.ErrorMessage(err)
	f.Fields = nil
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		f.Fields = vErr.Fields
	}
}
