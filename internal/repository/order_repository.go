package repository

import (
	"context"
	"errors"
	"fmt"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// CreateOrder inserts the order header and assigns its ID and CreatedAt.
func (r *orderRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (
			delivery_street, delivery_city, delivery_region, delivery_postal_code,
			billing_street, billing_city, billing_region, billing_postal_code, billing_email,
			card_holder, card_last4, promo_title, promo_type, promo_rate,
			subtotal, discount, final_price, shipping_charge
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at
	`

	var (
		promoTitle *string
		promoType  *string
		promoRate  decimal.NullDecimal
	)
	if order.PromoCode != nil {
		title := order.PromoCode.Title
		kind := string(order.PromoCode.Type)
		promoTitle = &title
		promoType = &kind
		promoRate = decimal.NewNullDecimal(order.PromoCode.Rate)
	}

	d, b := order.DeliveryAddress, order.BillingAddress
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		d.Street, d.City, d.Region, d.PostalCode,
		b.Street, b.City, b.Region, b.PostalCode, b.Email,
		order.CardHolder, order.CardLast4, promoTitle, promoType, promoRate,
		order.Subtotal, order.Discount, order.FinalPrice, order.ShippingCharge,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateLineItems inserts line items and assigns their IDs.
func (r *orderRepository) CreateLineItems(ctx context.Context, orderID uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO line_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, orderID, item.Product.ID, item.Quantity, item.Product.Price)
	}

	results := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", items[i].Product.ID).
				Msg("failed to create line item")
			return fmt.Errorf("failed to create line item: %w", err)
		}
		items[i].OrderID = orderID
	}

	r.logger.Debug().
		Str("order_id", orderID.String()).
		Int("count", len(items)).
		Msg("line items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its line items and
// the referenced products. Line item prices are the prices charged.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	q := conn(ctx, r.pool)

	orderQuery := `
		SELECT id, created_at,
			delivery_street, delivery_city, delivery_region, delivery_postal_code,
			billing_street, billing_city, billing_region, billing_postal_code, billing_email,
			card_holder, card_last4, promo_title, promo_type, promo_rate,
			subtotal, discount, final_price, shipping_charge
		FROM orders
		WHERE id = $1
	`

	var (
		order      model.Order
		promoTitle *string
		promoType  *string
		promoRate  decimal.NullDecimal
	)
	d, b := &order.DeliveryAddress, &order.BillingAddress
	err := q.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID, &order.CreatedAt,
		&d.Street, &d.City, &d.Region, &d.PostalCode,
		&b.Street, &b.City, &b.Region, &b.PostalCode, &b.Email,
		&order.CardHolder, &order.CardLast4, &promoTitle, &promoType, &promoRate,
		&order.Subtotal, &order.Discount, &order.FinalPrice, &order.ShippingCharge,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if promoTitle != nil && promoType != nil && promoRate.Valid {
		order.PromoCode = &model.PromoCode{
			Title: *promoTitle,
			Type:  model.DiscountType(*promoType),
			Rate:  promoRate.Decimal,
		}
	}

	itemsQuery := `
		SELECT li.id, li.order_id, li.quantity, li.unit_price,
			p.id, p.name, p.stock_quantity, p.active, p.created_at
		FROM line_items li
		JOIN products p ON p.id = li.product_id
		WHERE li.order_id = $1
		ORDER BY p.id, li.id
	`

	rows, err := q.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query line items")
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	order.LineItems = []model.LineItem{}
	for rows.Next() {
		var item model.LineItem
		p := &item.Product
		err := rows.Scan(&item.ID, &item.OrderID, &item.Quantity, &p.Price,
			&p.ID, &p.Name, &p.StockQuantity, &p.Active, &p.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan line item row")
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		order.LineItems = append(order.LineItems, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating line item rows")
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return &order, nil
}
