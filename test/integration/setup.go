package integration

import (
	"context"
	"testing"
	"time"

	"kart-checkout/internal/config"
	"kart-checkout/internal/database"
	"kart-checkout/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container, connects through the
// production pool constructor and applies the checkout schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  20,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// SeedProducts inserts the test catalogue.
// P001 10.00 x5, P002 20.00 x3, P003 30.00 x1, P004 inactive, P005 out of stock.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	products := []struct {
		id     string
		name   string
		price  string
		stock  int
		active bool
	}{
		{"P001", "Test Product 1", "10.00", 5, true},
		{"P002", "Test Product 2", "20.00", 3, true},
		{"P003", "Test Product 3", "30.00", 1, true},
		{"P004", "Test Product 4", "40.00", 10, false},
		{"P005", "Test Product 5", "50.00", 0, true},
	}

	for _, p := range products {
		_, err := pool.Exec(context.Background(),
			"INSERT INTO products (id, name, price, stock_quantity, active) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.name, decimal.RequireFromString(p.price), p.stock, p.active,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// SeedPromoCodes inserts one always-valid code of each type and one expired code.
func SeedPromoCodes(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	expired := time.Now().AddDate(0, 0, -1)
	codes := []model.PromoCode{
		{Title: "FIVEOFF", Type: model.DiscountFlat, Rate: decimal.NewFromInt(5)},
		{Title: "TENPCT", Type: model.DiscountPercent, Rate: decimal.NewFromInt(10)},
		{Title: "GONE", Type: model.DiscountPercent, Rate: decimal.NewFromInt(50), ValidUntil: &expired},
	}

	for _, c := range codes {
		_, err := pool.Exec(context.Background(),
			"INSERT INTO promo_codes (title, discount_type, rate, valid_from, valid_until) VALUES ($1, $2, $3, $4, $5)",
			c.Title, string(c.Type), c.Rate, c.ValidFrom, c.ValidUntil,
		)
		if err != nil {
			t.Fatalf("failed to seed promo code %s: %v", c.Title, err)
		}
	}
}

// CleanupDB removes all data from the test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE line_items, orders, promo_codes, products CASCADE")
	if err != nil {
		t.Logf("failed to clean tables: %v", err)
	}
}

// StockOf returns the stored stock of a product.
func StockOf(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), "SELECT stock_quantity FROM products WHERE id = $1", id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of %s: %v", id, err)
	}
	return stock
}

// CountOrders returns the number of stored orders.
func CountOrders(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	return n
}

// ValidRequest builds a checkout request that passes payment and field checks.
func ValidRequest(region string, items ...model.OrderItemRequest) *model.OrderRequest {
	address := model.Address{Street: "1 Main St", City: "Springfield", Region: region, PostalCode: "12345"}
	billing := address
	billing.Email = "jane@example.com"

	return &model.OrderRequest{
		DeliveryAddress: address,
		BillingAddress:  billing,
		Payment: &model.PaymentInstrument{
			CardNumber: "4111111111111111",
			CVV:        "123",
			HolderName: "Jane Doe",
			Expiration: "12/49",
		},
		Items: items,
	}
}
