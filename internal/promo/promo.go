// Package promo resolves client-supplied promotional code titles to
// authoritative, currently active promo code records.
package promo

import (
	"context"

	"kart-checkout/internal/model"
)

// Lookup finds promo codes by title.
type Lookup interface {
	// FindByTitle returns the promo code with the given title, or nil when
	// no such code exists.
	FindByTitle(ctx context.Context, title string) (*model.PromoCode, error)
}

// Loader reads a promo snapshot file.
type Loader interface {
	// Load reads a gzipped JSON-lines promo file, one promo code per line.
	Load(ctx context.Context, path string) ([]model.PromoCode, error)
}
