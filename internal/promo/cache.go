package promo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kart-checkout/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedLookup is a Redis read-through cache in front of another Lookup.
// Only found codes are cached. Redis failures fall through to the inner lookup.
type CachedLookup struct {
	inner  Lookup
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewCachedLookup wraps inner with a Redis cache.
func NewCachedLookup(inner Lookup, client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *CachedLookup {
	return &CachedLookup{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: "kart-checkout:promo:",
		logger: logger.With().Str("component", "promo-cache").Logger(),
	}
}

func (c *CachedLookup) key(title string) string {
	return c.prefix + title
}

// FindByTitle serves from Redis when possible and populates it on a miss.
func (c *CachedLookup) FindByTitle(ctx context.Context, title string) (*model.PromoCode, error) {
	raw, err := c.client.Get(ctx, c.key(title)).Bytes()
	switch {
	case err == nil:
		var code model.PromoCode
		if jsonErr := json.Unmarshal(raw, &code); jsonErr == nil {
			return &code, nil
		}
		c.logger.Warn().Str("promo_code", title).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("promo_code", title).Msg("promo cache read failed")
	}

	code, err := c.inner.FindByTitle(ctx, title)
	if err != nil || code == nil {
		return code, err
	}

	data, err := json.Marshal(code)
	if err != nil {
		return code, nil
	}
	if err := c.client.Set(ctx, c.key(title), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("promo_code", title).Msg("promo cache write failed")
	}

	return code, nil
}
