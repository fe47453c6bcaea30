// Package pricing computes order subtotals, shipping charges and discounts.
package pricing

import (
	"fmt"

	"kart-checkout/internal/model"
	"kart-checkout/internal/shipping"

	"github.com/shopspring/decimal"
)

// PercentMode selects how a PERCENT promo rate is interpreted.
type PercentMode string

const (
	// PercentModePercentage treats the rate as a whole percentage (25 means 25%).
	PercentModePercentage PercentMode = "percentage"
	// PercentModeFraction multiplies the subtotal by the raw rate (0.25 means 25%).
	PercentModeFraction PercentMode = "fraction"
)

// scale is the number of decimal places every monetary result is rounded to.
const scale = 2

var hundred = decimal.NewFromInt(100)

// Options configures an Engine.
type Options struct {
	// MinOrderThreshold is the subtotal at or below which shipping is charged.
	MinOrderThreshold decimal.Decimal
	PercentMode       PercentMode
	// ClampFlatDiscount floors FLAT discount results at zero.
	ClampFlatDiscount bool
}

// DefaultOptions returns the reference pricing options.
func DefaultOptions() Options {
	return Options{
		MinOrderThreshold: decimal.NewFromInt(50),
		PercentMode:       PercentModePercentage,
		ClampFlatDiscount: true,
	}
}

// Quote is the priced result for a set of validated line items.
// Shipping is reported alongside the price, never added to it.
type Quote struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	FinalPrice decimal.Decimal
	Shipping   decimal.Decimal
}

// Engine prices orders. It holds no mutable state.
type Engine struct {
	table *shipping.Table
	opts  Options
}

// NewEngine creates a pricing engine over a shipping table.
func NewEngine(table *shipping.Table, opts Options) (*Engine, error) {
	switch opts.PercentMode {
	case PercentModePercentage, PercentModeFraction:
	default:
		return nil, fmt.Errorf("invalid percent mode: %q", opts.PercentMode)
	}
	if opts.MinOrderThreshold.IsNegative() {
		return nil, fmt.Errorf("minimum order threshold must not be negative")
	}
	return &Engine{table: table, opts: opts}, nil
}

// Subtotal sums price times quantity over the line items.
func (e *Engine) Subtotal(items []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return round(total)
}

// ComputeShipping returns the shipping charge for delivering items to region.
// Shipping applies when the region is elevated or the subtotal does not exceed
// the minimum order threshold; the charge is then the tier cost.
func (e *Engine) ComputeShipping(items []model.LineItem, region string) (decimal.Decimal, error) {
	tier, err := e.table.Lookup(region)
	if err != nil {
		return decimal.Zero, err
	}
	return e.shippingFor(tier, e.Subtotal(items)), nil
}

func (e *Engine) shippingFor(tier shipping.Tier, subtotal decimal.Decimal) decimal.Decimal {
	if tier.Elevated() || subtotal.LessThanOrEqual(e.opts.MinOrderThreshold) {
		return round(tier.Cost)
	}
	return decimal.Zero
}

// Accepts reports whether code can be applied under the engine's percent
// mode. Fraction mode only honours PERCENT rates in (0, 1].
func (e *Engine) Accepts(code *model.PromoCode) bool {
	if code == nil {
		return false
	}
	if code.Type == model.DiscountPercent && e.opts.PercentMode == PercentModeFraction {
		return code.Rate.IsPositive() && code.Rate.LessThanOrEqual(decimal.NewFromInt(1))
	}
	return true
}

// ApplyDiscount returns subtotal after applying code. A nil code leaves the
// subtotal unchanged apart from rounding.
func (e *Engine) ApplyDiscount(subtotal decimal.Decimal, code *model.PromoCode) decimal.Decimal {
	return round(subtotal.Sub(e.discount(subtotal, code)))
}

func (e *Engine) discount(subtotal decimal.Decimal, code *model.PromoCode) decimal.Decimal {
	if !e.Accepts(code) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch code.Type {
	case model.DiscountFlat:
		d = code.Rate
		if e.opts.ClampFlatDiscount && d.GreaterThan(subtotal) {
			d = subtotal
		}
	case model.DiscountPercent:
		d = subtotal.Mul(code.Rate)
		if e.opts.PercentMode == PercentModePercentage {
			d = d.Div(hundred)
		}
		if d.GreaterThan(subtotal) {
			d = subtotal
		}
	default:
		return decimal.Zero
	}
	return round(d)
}

// Quote prices items for delivery to region with an optional resolved code.
func (e *Engine) Quote(items []model.LineItem, region string, code *model.PromoCode) (Quote, error) {
	tier, err := e.table.Lookup(region)
	if err != nil {
		return Quote{}, err
	}

	subtotal := e.Subtotal(items)
	discount := e.discount(subtotal, code)

	return Quote{
		Subtotal:   subtotal,
		Discount:   discount,
		FinalPrice: round(subtotal.Sub(discount)),
		Shipping:   e.shippingFor(tier, subtotal),
	}, nil
}

// round rounds half away from zero, which is half-up for the non-negative
// amounts produced when flat discounts are clamped.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(scale)
}
