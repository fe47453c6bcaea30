package repository

import (
	"context"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Unknown ids are omitted.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// DecrementStock lowers stock by quantity only if enough units remain.
	// On conflict it returns the current stock and model.ErrStockConflict.
	DecrementStock(ctx context.Context, id string, quantity int) (int, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateOrder inserts the order header and sets the database-assigned
	// ID and CreatedAt on order.
	CreateOrder(ctx context.Context, order *model.Order) error

	// CreateLineItems inserts line items for order and sets each item's
	// database-assigned ID and OrderID.
	CreateLineItems(ctx context.Context, orderID uuid.UUID, items []model.LineItem) error

	// GetByID retrieves an order by its ID along with its line items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// PromoCodeRepository reads promo codes stored in PostgreSQL.
type PromoCodeRepository interface {
	// FindByTitle returns the promo code with the given title, or nil.
	FindByTitle(ctx context.Context, title string) (*model.PromoCode, error)
}
