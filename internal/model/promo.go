package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType identifies how a promo code rate is applied.
type DiscountType string

const (
	DiscountFlat    DiscountType = "FLAT"
	DiscountPercent DiscountType = "PERCENT"
)

var hundred = decimal.NewFromInt(100)

// PromoCode is a named, time-bounded discount rule.
type PromoCode struct {
	Title      string          `json:"title" db:"title"`
	Type       DiscountType    `json:"type" db:"discount_type"`
	Rate       decimal.Decimal `json:"rate" db:"rate"`
	ValidFrom  *time.Time      `json:"validFrom,omitempty" db:"valid_from"`
	ValidUntil *time.Time      `json:"validUntil,omitempty" db:"valid_until"`
}

// Validate checks the rate invariant for the code's discount type.
func (p *PromoCode) Validate() error {
	switch p.Type {
	case DiscountFlat:
		if !p.Rate.IsPositive() {
			return fmt.Errorf("promo code %q: flat rate must be greater than zero", p.Title)
		}
	case DiscountPercent:
		if !p.Rate.IsPositive() || p.Rate.GreaterThan(hundred) {
			return fmt.Errorf("promo code %q: percent rate must be in (0, 100]", p.Title)
		}
	default:
		return fmt.Errorf("promo code %q: unknown discount type %q", p.Title, p.Type)
	}
	return nil
}

// ActiveAt reports whether t falls within the code's validity window.
// Both bounds are inclusive and optional.
func (p *PromoCode) ActiveAt(t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && t.After(*p.ValidUntil) {
		return false
	}
	return true
}
