package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	args := m.Called(ctx, id, quantity)
	return args.Int(0), args.Error(1)
}

func testProducts() []model.Product {
	return []model.Product{
		{ID: "P001", Name: "Chicken Waffle", Price: decimal.RequireFromString("6.50"), StockQuantity: 10, Active: true, CreatedAt: time.Now()},
		{ID: "P002", Name: "Baklava", Price: decimal.RequireFromString("4.00"), StockQuantity: 5, Active: true, CreatedAt: time.Now()},
	}
}

func TestProductService_GetAll(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name           string
		limit          int
		offset         int
		expectedLimit  int
		expectedOffset int
		mockError      error
		expectError    bool
	}{
		{name: "Valid pagination", limit: 10, offset: 0, expectedLimit: 10, expectedOffset: 0},
		{name: "Zero limit uses default page size", limit: 0, offset: 5, expectedLimit: 20, expectedOffset: 5},
		{name: "Limit capped at maximum", limit: 500, offset: 0, expectedLimit: 100, expectedOffset: 0},
		{name: "Negative offset clamped", limit: 10, offset: -3, expectedLimit: 10, expectedOffset: 0},
		{name: "Repository error", limit: 10, offset: 0, expectedLimit: 10, mockError: errors.New("db down"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, logger)

			if tt.mockError != nil {
				mockRepo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOffset).Return(nil, tt.mockError)
			} else {
				mockRepo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOffset).Return(testProducts(), nil)
			}

			products, err := service.GetAll(ctx, tt.limit, tt.offset)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrServiceUnavailable))
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Len(t, products, 2)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	product := testProducts()[0]

	tests := []struct {
		name        string
		id          string
		setup       func(m *MockProductRepository)
		expectedErr error
	}{
		{
			name: "Found",
			id:   "P001",
			setup: func(m *MockProductRepository) {
				m.On("GetByID", ctx, "P001").Return(&product, nil)
			},
		},
		{
			name:        "Blank id",
			id:          "  ",
			setup:       func(m *MockProductRepository) {},
			expectedErr: model.ErrProductNotFound,
		},
		{
			name: "Not found",
			id:   "P999",
			setup: func(m *MockProductRepository) {
				m.On("GetByID", ctx, "P999").Return(nil, nil)
			},
			expectedErr: model.ErrProductNotFound,
		},
		{
			name: "Repository error",
			id:   "P001",
			setup: func(m *MockProductRepository) {
				m.On("GetByID", ctx, "P001").Return(nil, errors.New("db down"))
			},
			expectedErr: model.ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			tt.setup(mockRepo)
			service := NewProductService(mockRepo, logger)

			result, err := service.GetByID(ctx, tt.id)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedErr))
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Chicken Waffle", result.Name)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetByIDs(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("Deduplicates and sorts ids", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := NewProductService(mockRepo, logger)
		mockRepo.On("GetByIDs", ctx, []string{"P001", "P002"}).Return(testProducts(), nil)

		products, err := service.GetByIDs(ctx, []string{"P002", " P001", "P002", ""})

		require.NoError(t, err)
		assert.Len(t, products, 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("No ids skips the repository", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := NewProductService(mockRepo, logger)

		products, err := service.GetByIDs(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, products)
		mockRepo.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
	})
}
