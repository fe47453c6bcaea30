package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kart-checkout/internal/inventory"
	"kart-checkout/internal/metrics"
	"kart-checkout/internal/model"
	"kart-checkout/internal/payment"
	"kart-checkout/internal/pricing"
	"kart-checkout/internal/promo"
	"kart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconcileMode selects when stock is debited relative to the order commit.
type ReconcileMode string

const (
	// ReconcileTransactional persists the order and debits stock in one
	// transaction. A stock conflict rolls the order back.
	ReconcileTransactional ReconcileMode = "transactional"
	// ReconcilePostCommit commits the order first and debits stock after.
	// A failed debit leaves the order in place and is reported as a
	// *model.ReconcileError.
	ReconcilePostCommit ReconcileMode = "post-commit"
)

// CheckoutOptions configures a checkout service.
type CheckoutOptions struct {
	Mode    ReconcileMode
	Metrics *metrics.Metrics
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	orders     repository.OrderRepository
	txm        repository.TxManager
	reconciler *inventory.Reconciler
	resolver   *promo.Resolver
	engine     *pricing.Engine
	mode       ReconcileMode
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orders repository.OrderRepository,
	txm repository.TxManager,
	reconciler *inventory.Reconciler,
	resolver *promo.Resolver,
	engine *pricing.Engine,
	opts CheckoutOptions,
	logger zerolog.Logger,
) (CheckoutService, error) {
	switch opts.Mode {
	case "":
		opts.Mode = ReconcileTransactional
	case ReconcileTransactional, ReconcilePostCommit:
	default:
		return nil, fmt.Errorf("unknown reconcile mode %q", opts.Mode)
	}

	return &checkoutService{
		orders:     orders,
		txm:        txm,
		reconciler: reconciler,
		resolver:   resolver,
		engine:     engine,
		mode:       opts.Mode,
		metrics:    opts.Metrics,
		now:        time.Now,
		logger:     logger.With().Str("service", "checkout").Logger(),
	}, nil
}

// Checkout runs the checkout pipeline. Every failing step is terminal except
// promo resolution, which degrades to no discount.
func (s *checkoutService) Checkout(ctx context.Context, req *model.OrderRequest) (order *model.Order, err error) {
	defer func() {
		s.metrics.ObserveCheckout(outcome(err))
	}()

	if req == nil {
		return nil, &model.FieldError{Field: "order", Reason: "is required"}
	}

	if err := payment.Validate(req.Payment, s.now()); err != nil {
		s.logger.Warn().Err(err).Msg("payment instrument rejected")
		return nil, err
	}

	if err := validateRequired(req); err != nil {
		s.logger.Warn().Err(err).Msg("order request incomplete")
		return nil, err
	}

	items, err := s.reconciler.ValidateAvailability(ctx, lineItemsFrom(req.Items))
	if err != nil {
		return nil, err
	}

	code := s.resolvePromo(ctx, req.PromoCode)

	quote, err := s.engine.Quote(items, req.DeliveryAddress.Region, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("region", req.DeliveryAddress.Region).Msg("order could not be priced")
		return nil, err
	}

	order = &model.Order{
		DeliveryAddress: req.DeliveryAddress,
		BillingAddress:  req.BillingAddress,
		CardHolder:      strings.TrimSpace(req.Payment.HolderName),
		CardLast4:       req.Payment.Last4(),
		PromoCode:       code,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		FinalPrice:      quote.FinalPrice,
		ShippingCharge:  quote.Shipping,
	}

	// Once persistence starts the request runs to completion regardless of
	// client disconnects.
	ctx = context.WithoutCancel(ctx)

	if s.mode == ReconcilePostCommit {
		err = s.persistThenReconcile(ctx, order, items)
	} else {
		err = s.persistAndReconcile(ctx, order, items)
	}
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = uuid.Nil
	}
	order.LineItems = items

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Str("final_price", order.FinalPrice.StringFixed(2)).
		Str("shipping", order.ShippingCharge.StringFixed(2)).
		Msg("order checked out")

	return order, nil
}

// persistAndReconcile writes the order and debits stock atomically.
func (s *checkoutService) persistAndReconcile(ctx context.Context, order *model.Order, items []model.LineItem) error {
	err := s.txm.InTx(ctx, func(ctx context.Context) error {
		if err := s.persist(ctx, order, items); err != nil {
			return err
		}
		return s.reconciler.ReconcileStock(ctx, items)
	})
	if err == nil {
		return nil
	}

	if model.IsClientError(err) {
		s.logger.Warn().Err(err).Msg("stock changed during checkout, order rolled back")
		return err
	}
	var depErr *model.DependencyError
	if errors.As(err, &depErr) {
		return err
	}
	s.logger.Error().Err(err).Msg("checkout transaction failed")
	return &model.DependencyError{Op: "checkout transaction", Err: err}
}

// persistThenReconcile commits the order before debiting stock. A failed
// debit cannot be rolled back and is reported with the order id.
func (s *checkoutService) persistThenReconcile(ctx context.Context, order *model.Order, items []model.LineItem) error {
	err := s.txm.InTx(ctx, func(ctx context.Context) error {
		return s.persist(ctx, order, items)
	})
	if err != nil {
		var depErr *model.DependencyError
		if errors.As(err, &depErr) {
			return err
		}
		return &model.DependencyError{Op: "persist order", Err: err}
	}

	if err := s.reconciler.ReconcileStock(ctx, items); err != nil {
		s.metrics.ObserveReconcileFailure()
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("order persisted but inventory not reconciled")
		return &model.ReconcileError{OrderID: order.ID, Err: err}
	}

	return nil
}

// persist writes the order header, then its line items.
func (s *checkoutService) persist(ctx context.Context, order *model.Order, items []model.LineItem) error {
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return &model.DependencyError{Op: "persist order", Err: err}
	}

	for i := range items {
		items[i].ID = uuid.Nil
	}

	if err := s.orders.CreateLineItems(ctx, order.ID, items); err != nil {
		return &model.DependencyError{Op: "persist line items", Err: err}
	}

	return nil
}

// resolvePromo returns the code to apply, or nil. Resolver failures are logged
// and skipped.
func (s *checkoutService) resolvePromo(ctx context.Context, title *string) *model.PromoCode {
	if title == nil || strings.TrimSpace(*title) == "" {
		return nil
	}

	code, err := s.resolver.Resolve(ctx, *title)
	if err != nil {
		s.metrics.ObservePromoFallback()
		s.logger.Warn().Err(err).Str("promo_code", *title).Msg("promo lookup failed, continuing without discount")
		return nil
	}
	if code == nil {
		s.logger.Info().Str("promo_code", *title).Msg("promo code not applicable")
		return nil
	}
	if !s.engine.Accepts(code) {
		s.logger.Warn().Str("promo_code", code.Title).Str("rate", code.Rate.String()).Msg("promo rate out of range for percent mode")
		return nil
	}
	return code
}

// GetByID retrieves a persisted order with its line items.
func (s *checkoutService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, &model.DependencyError{Op: "order lookup", Err: err}
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, nil
	}

	for i := range order.LineItems {
		order.LineItems[i].OrderID = uuid.Nil
	}

	return order, nil
}

// lineItemsFrom keeps only the product id and quantity of each request item.
func lineItemsFrom(reqItems []model.OrderItemRequest) []model.LineItem {
	items := make([]model.LineItem, len(reqItems))
	for i, item := range reqItems {
		items[i] = model.LineItem{
			Product:  model.Product{ID: strings.TrimSpace(item.ProductID)},
			Quantity: item.Quantity,
		}
	}
	return items
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, model.ErrInventoryNotReconciled):
		return metrics.OutcomeNotReconciled
	case model.IsClientError(err):
		return metrics.OutcomeRejected
	case errors.Is(err, model.ErrServiceUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeInternalFailure
	}
}
