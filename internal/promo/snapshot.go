package promo

import (
	"context"
	"fmt"
	"sync"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SnapshotConfig holds configuration for a snapshot store.
type SnapshotConfig struct {
	// FilePaths lists snapshot files. When two files define the same title,
	// the later file wins.
	FilePaths []string
}

// DefaultSnapshotConfig returns the default snapshot configuration.
func DefaultSnapshotConfig() *SnapshotConfig {
	return &SnapshotConfig{
		FilePaths: []string{"data/promos/promos.jsonl.gz"},
	}
}

// SnapshotStore is an in-memory Lookup built from promo snapshot files.
type SnapshotStore struct {
	mu     sync.RWMutex
	codes  map[string]model.PromoCode
	logger zerolog.Logger
}

// NewSnapshotStore loads every configured file concurrently and merges them.
func NewSnapshotStore(ctx context.Context, config *SnapshotConfig, loader Loader, logger zerolog.Logger) (*SnapshotStore, error) {
	if config == nil {
		config = DefaultSnapshotConfig()
	}

	logger = logger.With().Str("component", "promo-snapshot").Logger()
	logger.Info().Int("file_count", len(config.FilePaths)).Msg("initialising promo snapshot store")

	results := make([][]model.PromoCode, len(config.FilePaths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range config.FilePaths {
		g.Go(func() error {
			codes, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load promo file %s: %w", path, err)
			}
			results[i] = codes
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to load promo snapshot")
		return nil, err
	}

	s := &SnapshotStore{
		codes:  make(map[string]model.PromoCode),
		logger: logger,
	}

	for i, codes := range results {
		for _, code := range codes {
			if err := code.Validate(); err != nil {
				logger.Warn().Err(err).Str("file", config.FilePaths[i]).Msg("skipping invalid promo code")
				continue
			}
			s.codes[code.Title] = code
		}
		logger.Info().
			Str("file", config.FilePaths[i]).
			Int("size", len(codes)).
			Msg("promo file loaded")
	}

	logger.Info().Int("total_codes", len(s.codes)).Msg("promo snapshot store initialised")

	return s, nil
}

// FindByTitle returns a copy of the stored code, or nil when absent.
func (s *SnapshotStore) FindByTitle(_ context.Context, title string) (*model.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.codes[title]
	if !ok {
		return nil, nil
	}
	return &code, nil
}

// Size returns the number of codes held.
func (s *SnapshotStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}

// Close releases the held codes.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	s.codes = nil
	s.mu.Unlock()

	s.logger.Info().Msg("promo snapshot store closed")
	return nil
}
