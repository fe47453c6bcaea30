package promo

import (
	"context"
	"strings"
	"time"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
)

// Resolver turns an advisory client code title into an active promo code.
type Resolver struct {
	lookup Lookup
	now    func() time.Time
	logger zerolog.Logger
}

// NewResolver creates a resolver backed by lookup.
func NewResolver(lookup Lookup, logger zerolog.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		now:    time.Now,
		logger: logger.With().Str("component", "promo-resolver").Logger(),
	}
}

// Resolve returns the authoritative record for title when it exists, is
// within its validity window and satisfies its rate invariant. Otherwise it
// returns nil. Lookup failures are returned as *model.DependencyError.
func (r *Resolver) Resolve(ctx context.Context, title string) (*model.PromoCode, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	code, err := r.lookup.FindByTitle(ctx, title)
	if err != nil {
		r.logger.Error().Err(err).Str("promo_code", title).Msg("promo code lookup failed")
		return nil, &model.DependencyError{Op: "promo code lookup", Err: err}
	}

	if code == nil {
		r.logger.Debug().Str("promo_code", title).Msg("promo code not found")
		return nil, nil
	}

	if err := code.Validate(); err != nil {
		r.logger.Warn().Err(err).Str("promo_code", title).Msg("promo code record is invalid")
		return nil, nil
	}

	if !code.ActiveAt(r.now()) {
		r.logger.Debug().Str("promo_code", title).Msg("promo code outside validity window")
		return nil, nil
	}

	return code, nil
}
