package repository

import (
	"context"
	"errors"
	"fmt"

	"kart-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// promoCodeRepository implements PromoCodeRepository using PostgreSQL.
type promoCodeRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromoCodeRepository creates a new PostgreSQL-backed promo code repository.
func NewPromoCodeRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromoCodeRepository {
	return &promoCodeRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promo_code").Logger(),
	}
}

// FindByTitle returns the promo code with the given title, or nil.
func (r *promoCodeRepository) FindByTitle(ctx context.Context, title string) (*model.PromoCode, error) {
	query := `
		SELECT title, discount_type, rate, valid_from, valid_until
		FROM promo_codes
		WHERE title = $1
	`

	var code model.PromoCode
	err := conn(ctx, r.pool).QueryRow(ctx, query, title).
		Scan(&code.Title, &code.Type, &code.Rate, &code.ValidFrom, &code.ValidUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("title", title).Msg("promo code not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("title", title).Msg("failed to query promo code")
		return nil, fmt.Errorf("failed to query promo code: %w", err)
	}

	return &code, nil
}
