package service

import (
	"context"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
)

// ProductService exposes a read-only view of the catalogue.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

// CheckoutService turns order requests into persisted, priced orders.
type CheckoutService interface {
	// Checkout validates, prices and persists an order and debits stock.
	Checkout(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves a persisted order with its line items, or nil.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}
