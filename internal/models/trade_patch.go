package models

import (
	"github.com/shopspring/decimal"
)

// TradePatch holds the fields an update should change. Nil means untouched.
type TradePatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Location    *string          `json:"location,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Duration    *string          `json:"duration,omitempty"`
	TradeType   *string          `json:"trade_type,omitempty"`
}

func (p TradePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Image == nil && p.Location == nil &&
		p.Price == nil && p.Duration == nil && p.TradeType == nil
}

// Apply returns a copy of t with the patched fields replaced.
func (p TradePatch) Apply(t Trade) Trade {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Image != nil {
		t.Image = *p.Image
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.TradeType != nil {
		t.TradeType = *p.TradeType
	}
	return t
}

type TradePatchBuilder struct {
	patch TradePatch
}

func NewTradePatch() *TradePatchBuilder {
	return &TradePatchBuilder{}
}

func (b *TradePatchBuilder) Name(v string) *TradePatchBuilder {
	b.patch.Name = &v
	return b
}

func (b *TradePatchBuilder) Description(v string) *TradePatchBuilder {
	b.patch.Description = &v
	return b
}

func (b *TradePatchBuilder) Image(v string) *TradePatchBuilder {
	b.patch.Image = &v
	return b
}

func (b *TradePatchBuilder) Location(v string) *TradePatchBuilder {
	b.patch.Location = &v
	return b
}

func (b *TradePatchBuilder) Price(v decimal.Decimal) *TradePatchBuilder {
	b.patch.Price = &v
	return b
}

func (b *TradePatchBuilder) Duration(v string) *TradePatchBuilder {
	b.patch.Duration = &v
	return b
}

func (b *TradePatchBuilder) TradeType(v string) *TradePatchBuilder {
	b.patch.TradeType = &v
	return b
}

func (b *TradePatchBuilder) Build() TradePatch {
	return b.patch
}
