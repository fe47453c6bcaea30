package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"kart-checkout/internal/inventory"
	"kart-checkout/internal/metrics"
	"kart-checkout/internal/model"
	"kart-checkout/internal/pricing"
	"kart-checkout/internal/promo"
	"kart-checkout/internal/shipping"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateLineItems(ctx context.Context, orderID uuid.UUID, items []model.LineItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockPromoLookup is a mock implementation of promo.Lookup.
type MockPromoLookup struct {
	mock.Mock
}

func (m *MockPromoLookup) FindByTitle(ctx context.Context, title string) (*model.PromoCode, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PromoCode), args.Error(1)
}

// fakeTxManager runs fn inline and records how each transaction ended.
type fakeTxManager struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (f *fakeTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rollbacks++
	} else {
		f.commits++
	}
	return err
}

var checkoutNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

type checkoutFixture struct {
	service  CheckoutService
	orders   *MockOrderRepository
	products *MockProductRepository
	promos   *MockPromoLookup
	tx       *fakeTxManager
	metrics  *metrics.Metrics
}

func newCheckoutFixture(t *testing.T, mode ReconcileMode) *checkoutFixture {
	t.Helper()
	return newPricedCheckoutFixture(t, mode, pricing.DefaultOptions())
}

func newPricedCheckoutFixture(t *testing.T, mode ReconcileMode, opts pricing.Options) *checkoutFixture {
	t.Helper()
	logger := zerolog.Nop()

	f := &checkoutFixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		promos:   new(MockPromoLookup),
		tx:       &fakeTxManager{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	engine, err := pricing.NewEngine(
		shipping.NewTable(decimal.NewFromInt(5), decimal.NewFromInt(10)),
		opts,
	)
	require.NoError(t, err)

	svc, err := NewCheckoutService(
		f.orders,
		f.tx,
		inventory.NewReconciler(f.products, logger),
		promo.NewResolver(f.promos, logger),
		engine,
		CheckoutOptions{Mode: mode, Metrics: f.metrics},
		logger,
	)
	require.NoError(t, err)
	svc.(*checkoutService).now = func() time.Time { return checkoutNow }
	f.service = svc

	return f
}

// expectPersist sets up successful header and line item writes.
func (f *checkoutFixture) expectPersist(orderID uuid.UUID) {
	f.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			order := args.Get(1).(*model.Order)
			order.ID = orderID
			order.CreatedAt = checkoutNow
		}).
		Return(nil)
	f.orders.On("CreateLineItems", mock.Anything, orderID, mock.AnythingOfType("[]model.LineItem")).
		Run(func(args mock.Arguments) {
			items := args.Get(2).([]model.LineItem)
			for i := range items {
				items[i].ID = uuid.New()
				items[i].OrderID = orderID
			}
		}).
		Return(nil)
}

func validRequest(region string, items ...model.OrderItemRequest) *model.OrderRequest {
	address := model.Address{Street: "1 Main St", City: "Springfield", Region: region, PostalCode: "12345"}
	billing := address
	billing.Email = "jane@example.com"

	return &model.OrderRequest{
		DeliveryAddress: address,
		BillingAddress:  billing,
		Payment: &model.PaymentInstrument{
			CardNumber: "1234567890123456",
			CVV:        "111",
			HolderName: "Jane Doe",
			Expiration: "04/30",
		},
		Items: items,
	}
}

func strPtr(s string) *string {
	return &s
}

func TestCheckoutService_Checkout_Success(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	orderID := uuid.New()

	clientPrice := decimal.NewFromInt(0)
	clientActive := true
	clientID := uuid.New()
	req := validRequest("washington",
		model.OrderItemRequest{ID: &clientID, ProductID: "P001", Quantity: 2, Price: &clientPrice, Active: &clientActive},
		model.OrderItemRequest{ProductID: "P002", Quantity: 1},
	)
	req.PromoCode = strPtr("TENPCT")

	f.products.On("GetByIDs", mock.Anything, []string{"P001", "P002"}).Return(testProducts(), nil)
	f.promos.On("FindByTitle", mock.Anything, "TENPCT").
		Return(&model.PromoCode{Title: "TENPCT", Type: model.DiscountPercent, Rate: decimal.NewFromInt(10)}, nil)
	f.expectPersist(orderID)
	f.products.On("DecrementStock", mock.Anything, "P001", 2).Return(8, nil)
	f.products.On("DecrementStock", mock.Anything, "P002", 1).Return(4, nil)

	order, err := f.service.Checkout(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, "3456", order.CardLast4)
	assert.Equal(t, "Jane Doe", order.CardHolder)
	assert.True(t, decimal.RequireFromString("17.00").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("1.70").Equal(order.Discount))
	assert.True(t, decimal.RequireFromString("15.30").Equal(order.FinalPrice))
	assert.True(t, decimal.RequireFromString("5.00").Equal(order.ShippingCharge))
	require.NotNil(t, order.PromoCode)
	assert.Equal(t, "TENPCT", order.PromoCode.Title)

	require.Len(t, order.LineItems, 2)
	for _, item := range order.LineItems {
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.NotEqual(t, clientID, item.ID)
		assert.Equal(t, uuid.Nil, item.OrderID, "back-reference is cleared")
	}
	assert.True(t, decimal.RequireFromString("6.50").Equal(order.LineItems[0].Product.Price), "catalogue price replaces client price")

	assert.Equal(t, 1, f.tx.commits)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues(metrics.OutcomeSuccess)))
	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestCheckoutService_Checkout_ElevatedRegionChargesShipping(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	orderID := uuid.New()

	products := []model.Product{
		{ID: "P010", Name: "Tiramisu", Price: decimal.RequireFromString("17.50"), StockQuantity: 5, Active: true},
	}
	f.products.On("GetByIDs", mock.Anything, []string{"P010"}).Return(products, nil)
	f.expectPersist(orderID)
	f.products.On("DecrementStock", mock.Anything, "P010", 2).Return(3, nil)

	order, err := f.service.Checkout(context.Background(), validRequest("hawaii", model.OrderItemRequest{ProductID: "P010", Quantity: 2}))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.00").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("35.00").Equal(order.FinalPrice), "shipping is not added to the price")
	assert.True(t, decimal.RequireFromString("10.00").Equal(order.ShippingCharge))
	assert.Nil(t, order.PromoCode)
}

func TestCheckoutService_Checkout_ClientErrors(t *testing.T) {
	tests := []struct {
		name        string
		request     func() *model.OrderRequest
		setup       func(f *checkoutFixture)
		expectedErr error
		catalogUsed bool
	}{
		{
			name: "Invalid card number",
			request: func() *model.OrderRequest {
				req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
				req.Payment.CardNumber = "1234"
				return req
			},
			expectedErr: model.ErrInvalidPayment,
		},
		{
			name: "Missing payment",
			request: func() *model.OrderRequest {
				req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
				req.Payment = nil
				return req
			},
			expectedErr: model.ErrInvalidPayment,
		},
		{
			name: "Missing delivery city",
			request: func() *model.OrderRequest {
				req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
				req.DeliveryAddress.City = ""
				return req
			},
			expectedErr: model.ErrMissingField,
		},
		{
			name: "Missing product id",
			request: func() *model.OrderRequest {
				return validRequest("washington", model.OrderItemRequest{ProductID: " ", Quantity: 1})
			},
			expectedErr: model.ErrMissingField,
		},
		{
			name: "Empty order",
			request: func() *model.OrderRequest {
				return validRequest("washington")
			},
			expectedErr: model.ErrEmptyOrder,
		},
		{
			name: "Missing field reported before empty order",
			request: func() *model.OrderRequest {
				req := validRequest("washington")
				req.DeliveryAddress.Street = ""
				return req
			},
			expectedErr: model.ErrMissingField,
		},
		{
			name: "Zero quantity",
			request: func() *model.OrderRequest {
				return validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 0})
			},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name: "Quantity above column range",
			request: func() *model.OrderRequest {
				return validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: math.MaxInt})
			},
			expectedErr: model.ErrInvalidQuantity,
		},
		{
			name: "Duplicate lines overflowing int",
			request: func() *model.OrderRequest {
				return validRequest("washington",
					model.OrderItemRequest{ProductID: "P002", Quantity: inventory.MaxQuantity},
					model.OrderItemRequest{ProductID: "P002", Quantity: inventory.MaxQuantity},
					model.OrderItemRequest{ProductID: "P002", Quantity: 2},
				)
			},
			setup: func(f *checkoutFixture) {
				f.products.On("GetByIDs", mock.Anything, []string{"P002"}).Return(testProducts()[1:], nil)
			},
			expectedErr: model.ErrInsufficientStock,
			catalogUsed: true,
		},
		{
			name: "Duplicate lines one past stock",
			request: func() *model.OrderRequest {
				return validRequest("washington",
					model.OrderItemRequest{ProductID: "P002", Quantity: 3},
					model.OrderItemRequest{ProductID: "P002", Quantity: 3},
				)
			},
			setup: func(f *checkoutFixture) {
				f.products.On("GetByIDs", mock.Anything, []string{"P002"}).Return(testProducts()[1:], nil)
			},
			expectedErr: model.ErrInsufficientStock,
			catalogUsed: true,
		},
		{
			name: "Inactive and insufficient",
			request: func() *model.OrderRequest {
				return validRequest("washington",
					model.OrderItemRequest{ProductID: "P001", Quantity: 1},
					model.OrderItemRequest{ProductID: "P002", Quantity: 50},
				)
			},
			setup: func(f *checkoutFixture) {
				products := testProducts()
				products[0].Active = false
				f.products.On("GetByIDs", mock.Anything, []string{"P001", "P002"}).Return(products, nil)
			},
			expectedErr: model.ErrMultipleUnavailable,
			catalogUsed: true,
		},
		{
			name: "Unknown region",
			request: func() *model.OrderRequest {
				return validRequest("atlantis", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
			},
			setup: func(f *checkoutFixture) {
				f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
			},
			expectedErr: model.ErrUnknownRegion,
			catalogUsed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, ReconcileTransactional)
			if tt.setup != nil {
				tt.setup(f)
			}

			order, err := f.service.Checkout(context.Background(), tt.request())

			require.Error(t, err)
			assert.Nil(t, order)
			assert.True(t, errors.Is(err, tt.expectedErr), "got %v", err)
			assert.True(t, model.IsClientError(err))
			if !tt.catalogUsed {
				f.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
			}
			f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues(metrics.OutcomeRejected)))
		})
	}
}

func TestCheckoutService_Checkout_PaymentViolationsAggregated(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
	req.Payment.CardNumber = "abc"
	req.Payment.CVV = "1"

	_, err := f.service.Checkout(context.Background(), req)

	var paymentErr *model.PaymentError
	require.ErrorAs(t, err, &paymentErr)
	require.Len(t, paymentErr.Violations, 2)
	assert.Equal(t, "cardNumber", paymentErr.Violations[0].Field)
	assert.Equal(t, "cvv", paymentErr.Violations[1].Field)
}

func TestCheckoutService_Checkout_PromoIsAdvisory(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *checkoutFixture)
	}{
		{
			name: "Lookup failure",
			setup: func(f *checkoutFixture) {
				f.promos.On("FindByTitle", mock.Anything, "SPRING").Return(nil, errors.New("connection refused"))
			},
		},
		{
			name: "Expired code",
			setup: func(f *checkoutFixture) {
				ended := checkoutNow.Add(-24 * time.Hour)
				f.promos.On("FindByTitle", mock.Anything, "SPRING").Return(&model.PromoCode{
					Title: "SPRING", Type: model.DiscountFlat, Rate: decimal.NewFromInt(5), ValidUntil: &ended,
				}, nil)
			},
		},
		{
			name: "Unknown code",
			setup: func(f *checkoutFixture) {
				f.promos.On("FindByTitle", mock.Anything, "SPRING").Return(nil, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t, ReconcileTransactional)
			tt.setup(f)
			f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
			f.expectPersist(uuid.New())
			f.products.On("DecrementStock", mock.Anything, "P001", 3).Return(7, nil)

			req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 3})
			req.PromoCode = strPtr("SPRING")

			order, err := f.service.Checkout(context.Background(), req)

			require.NoError(t, err)
			assert.Nil(t, order.PromoCode)
			assert.True(t, order.Subtotal.Equal(order.FinalPrice))
			assert.True(t, decimal.Zero.Equal(order.Discount))
		})
	}
}

func TestCheckoutService_Checkout_PromoFallbackCounted(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	f.promos.On("FindByTitle", mock.Anything, "SPRING").Return(nil, errors.New("timeout"))
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
	f.expectPersist(uuid.New())
	f.products.On("DecrementStock", mock.Anything, "P001", 1).Return(9, nil)

	req := validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1})
	req.PromoCode = strPtr("SPRING")

	_, err := f.service.Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PromoFallbacks))
}

func TestCheckoutService_Checkout_TransactionalStockConflictRollsBack(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
	f.expectPersist(uuid.New())
	f.products.On("DecrementStock", mock.Anything, "P001", 10).Return(4, model.ErrStockConflict)

	order, err := f.service.Checkout(context.Background(),
		validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 10}))

	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))

	var unavailable *model.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []model.StockShortfall{{ProductID: "P001", Requested: 10, Available: 4}}, unavailable.Insufficient)

	assert.Equal(t, 0, f.tx.commits)
	assert.Equal(t, 1, f.tx.rollbacks)
}

func TestCheckoutService_Checkout_PostCommitReconcileFailure(t *testing.T) {
	f := newCheckoutFixture(t, ReconcilePostCommit)
	orderID := uuid.New()
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
	f.expectPersist(orderID)
	f.products.On("DecrementStock", mock.Anything, "P001", 2).Return(0, errors.New("connection reset"))

	order, err := f.service.Checkout(context.Background(),
		validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 2}))

	require.Error(t, err)
	assert.Nil(t, order)

	var reconcileErr *model.ReconcileError
	require.ErrorAs(t, err, &reconcileErr)
	assert.Equal(t, orderID, reconcileErr.OrderID)
	assert.False(t, model.IsClientError(err))

	assert.Equal(t, 1, f.tx.commits, "order stays committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconcileFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues(metrics.OutcomeNotReconciled)))
}

func TestCheckoutService_Checkout_PostCommitSuccess(t *testing.T) {
	f := newCheckoutFixture(t, ReconcilePostCommit)
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
	f.expectPersist(uuid.New())
	f.products.On("DecrementStock", mock.Anything, "P001", 2).Return(8, nil)

	order, err := f.service.Checkout(context.Background(),
		validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 2}))

	require.NoError(t, err)
	assert.Len(t, order.LineItems, 1)
	assert.Equal(t, 1, f.tx.commits)
}

func TestCheckoutService_Checkout_PersistenceFailure(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(testProducts()[:1], nil)
	f.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.Order")).Return(errors.New("disk full"))

	order, err := f.service.Checkout(context.Background(),
		validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1}))

	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, model.ErrServiceUnavailable))
	f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues(metrics.OutcomeUnavailable)))
}

func TestCheckoutService_Checkout_CatalogueUnavailable(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	f.products.On("GetByIDs", mock.Anything, []string{"P001"}).Return(nil, errors.New("timeout"))

	_, err := f.service.Checkout(context.Background(),
		validRequest("washington", model.OrderItemRequest{ProductID: "P001", Quantity: 1}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrServiceUnavailable))
}

func TestNewCheckoutService_UnknownMode(t *testing.T) {
	_, err := NewCheckoutService(nil, nil, nil, nil, nil, CheckoutOptions{Mode: "eventually"}, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reconcile mode")
}

func TestCheckoutService_GetByID(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Found", func(t *testing.T) {
		f := newCheckoutFixture(t, ReconcileTransactional)
		stored := &model.Order{
			ID:             orderID,
			ShippingCharge: decimal.NewFromInt(5),
			LineItems: []model.LineItem{
				{ID: uuid.New(), OrderID: orderID, Product: testProducts()[0], Quantity: 2},
			},
		}
		f.orders.On("GetByID", ctx, orderID).Return(stored, nil)

		order, err := f.service.GetByID(ctx, orderID)

		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, uuid.Nil, order.LineItems[0].OrderID)
	})

	t.Run("Not found", func(t *testing.T) {
		f := newCheckoutFixture(t, ReconcileTransactional)
		f.orders.On("GetByID", ctx, orderID).Return(nil, nil)

		order, err := f.service.GetByID(ctx, orderID)

		require.NoError(t, err)
		assert.Nil(t, order)
	})

	t.Run("Repository error", func(t *testing.T) {
		f := newCheckoutFixture(t, ReconcileTransactional)
		f.orders.On("GetByID", ctx, orderID).Return(nil, errors.New("db down"))

		order, err := f.service.GetByID(ctx, orderID)

		require.Error(t, err)
		assert.Nil(t, order)
		assert.True(t, errors.Is(err, model.ErrServiceUnavailable))
	})
}

func TestCheckoutService_Checkout_DuplicateLinesAtStockBoundary(t *testing.T) {
	f := newCheckoutFixture(t, ReconcileTransactional)
	orderID := uuid.New()

	f.products.On("GetByIDs", mock.Anything, []string{"P002"}).Return(testProducts()[1:], nil)
	f.expectPersist(orderID)
	f.products.On("DecrementStock", mock.Anything, "P002", 5).Return(0, nil).Once()

	order, err := f.service.Checkout(context.Background(), validRequest("washington",
		model.OrderItemRequest{ProductID: "P002", Quantity: 2},
		model.OrderItemRequest{ProductID: "P002", Quantity: 3},
	))

	require.NoError(t, err)
	require.Len(t, order.LineItems, 2)
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.Subtotal))
	f.products.AssertExpectations(t)
}

func TestCheckoutService_Checkout_FractionModeDropsOutOfRangeRate(t *testing.T) {
	opts := pricing.DefaultOptions()
	opts.PercentMode = pricing.PercentModeFraction
	f := newPricedCheckoutFixture(t, ReconcileTransactional, opts)
	orderID := uuid.New()

	req := validRequest("washington", model.OrderItemRequest{ProductID: "P002", Quantity: 5})
	req.PromoCode = strPtr("TENPCT")

	f.products.On("GetByIDs", mock.Anything, []string{"P002"}).Return(testProducts()[1:], nil)
	f.promos.On("FindByTitle", mock.Anything, "TENPCT").
		Return(&model.PromoCode{Title: "TENPCT", Type: model.DiscountPercent, Rate: decimal.NewFromInt(10)}, nil)
	f.expectPersist(orderID)
	f.products.On("DecrementStock", mock.Anything, "P002", 5).Return(0, nil)

	order, err := f.service.Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Nil(t, order.PromoCode)
	assert.True(t, decimal.Zero.Equal(order.Discount))
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.FinalPrice))
}
