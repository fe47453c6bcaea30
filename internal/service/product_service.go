package service

import (
	"context"
	"sort"
	"strings"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new read-only product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves a page of products. Limits outside (0, 100] are clamped.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	offset = max(offset, 0)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, &model.DependencyError{Op: "list products", Err: err}
	}

	return products, nil
}

// GetByID retrieves a single product, or model.ErrProductNotFound.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, &model.DependencyError{Op: "product lookup", Err: err}
	}

	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves the products with the given ids, ignoring duplicates
// and blanks. Unknown ids are omitted from the result.
func (s *productService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []model.Product{}, nil
	}
	sort.Strings(unique)

	products, err := s.productRepo.GetByIDs(ctx, unique)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(unique)).Msg("failed to get products by IDs")
		return nil, &model.DependencyError{Op: "product lookup", Err: err}
	}

	s.logger.Debug().
		Int("requested", len(unique)).
		Int("found", len(products)).
		Msg("retrieved products by IDs")

	return products, nil
}
