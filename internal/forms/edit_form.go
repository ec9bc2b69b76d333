package forms

import (
	"context"
	"net/url"
	"strings"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
)

const MsgNothingToUpdate = "Nothing to update"

// Updater dispatches a trade patch. *services.TradeStore satisfies it.
type Updater interface {
	UpdateTrade(ctx context.Context, who session.Provider, id models.ID, patch models.TradePatch) (models.Trade, error)
}

// EditForm edits an existing trade. Only fields that are non-empty and differ
// from the original end up in the patch.
type EditForm struct {
	Original models.Trade
	Draft    models.TradeDraft
	Error    string
}

func NewEditForm(t models.Trade) *EditForm {
	return &EditForm{
		Original: t,
		Draft: models.TradeDraft{
			Name:        t.Name,
			Description: t.Description,
			Image:       t.Image,
			Location:    t.Location,
			Price:       t.Price.String(),
			Duration:    t.Duration,
			TradeType:   t.TradeType,
			UserID:      t.UserID.String(),
		},
	}
}

func (f *EditForm) Bind(values url.Values) {
	for _, field := range models.DraftFields {
		if _, ok := values[field]; ok {
			f.Draft.Set(field, values.Get(field))
		}
	}
}

// Patch builds the update from the draft.
func (f *EditForm) Patch() (models.TradePatch, error) {
	b := models.NewTradePatch()
	changed := func(v, orig string) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != "" && v != orig
	}
	if v, ok := changed(f.Draft.Name, f.Original.Name); ok {
		b.Name(v)
	}
	if v, ok := changed(f.Draft.Description, f.Original.Description); ok {
		b.Description(v)
	}
	if v, ok := changed(f.Draft.Image, f.Original.Image); ok {
		b.Image(v)
	}
	if v, ok := changed(f.Draft.Location, f.Original.Location); ok {
		b.Location(v)
	}
	if v := strings.TrimSpace(f.Draft.Price); v != "" {
		price, err := models.ParsePrice(v)
		if err != nil {
			return models.TradePatch{}, err
		}
		if !price.Equal(f.Original.Price) {
			b.Price(price)
		}
	}
	if v, ok := changed(f.Draft.Duration, f.Original.Duration); ok {
		b.Duration(v)
	}
	if v, ok := changed(f.Draft.TradeType, f.Original.TradeType); ok {
		b.TradeType(v)
	}

	patch := b.Build()
	if patch.IsEmpty() {
		return models.TradePatch{}, &models.ValidationError{Message: MsgNothingToUpdate}
	}
	return patch, nil
}

// Submit dispatches the patch. On success the form is re-seeded from the
// updated record.
func (f *EditForm) Submit(ctx context.Context, who session.Provider, store Updater) (models.Trade, error) {
	patch, err := f.Patch()
	if err != nil {
		f.Error = services.ErrorMessage(err)
		return models.Trade{}, err
	}
	updated, err := store.UpdateTrade(ctx, who, f.Original.ID, patch)
	if err != nil {
		f.Error = services.ErrorMessage(err)
		return models.Trade{}, err
	}
	*f = *NewEditForm(updated)
	return updated, nil
}
