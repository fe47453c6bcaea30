package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Promo    PromoConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for promo snapshot files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "promos/")
}

// Promo code sources.
const (
	PromoSourceDatabase = "database"
	PromoSourceSnapshot = "snapshot"
)

// PromoConfig selects where promo codes are looked up.
type PromoConfig struct {
	Source        string   // "database" or "snapshot"
	SnapshotFiles []string // read in order, later files override earlier ones
}

// RedisConfig holds the promo cache configuration.
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// Reconcile modes.
const (
	ReconcileTransactional = "transactional"
	ReconcilePostCommit    = "post-commit"
)

// CheckoutConfig holds pricing and inventory settings.
type CheckoutConfig struct {
	MinOrderThreshold   decimal.Decimal
	DefaultShippingCost decimal.Decimal
	ElevatedShipping    decimal.Decimal
	PercentMode         string // "percentage" or "fraction"
	ClampFlatDiscount   bool
	ReconcileMode       string // "transactional" or "post-commit"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "checkout"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "promos/"),
		},
		Promo: PromoConfig{
			Source:        getEnv("PROMO_SOURCE", PromoSourceDatabase),
			SnapshotFiles: getEnvAsList("PROMO_SNAPSHOT_FILES", []string{"data/promos/promos.jsonl.gz"}),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("REDIS_TTL_SECONDS", 300)) * time.Second,
		},
		Checkout: CheckoutConfig{
			MinOrderThreshold:   getEnvAsDecimal("CHECKOUT_MIN_ORDER_THRESHOLD", decimal.NewFromInt(50)),
			DefaultShippingCost: getEnvAsDecimal("SHIPPING_DEFAULT_COST", decimal.NewFromInt(5)),
			ElevatedShipping:    getEnvAsDecimal("SHIPPING_ELEVATED_COST", decimal.NewFromInt(10)),
			PercentMode:         getEnv("CHECKOUT_PERCENT_MODE", "percentage"),
			ClampFlatDiscount:   getEnvAsBool("CHECKOUT_CLAMP_FLAT_DISCOUNT", true),
			ReconcileMode:       getEnv("CHECKOUT_RECONCILE_MODE", ReconcileTransactional),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if err := c.Promo.validate(); err != nil {
		return err
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if c.Redis.TTL <= 0 {
			return fmt.Errorf("redis TTL must be positive")
		}
	}

	return c.Checkout.validate()
}

func (c *PromoConfig) validate() error {
	switch c.Source {
	case PromoSourceDatabase:
	case PromoSourceSnapshot:
		if len(c.SnapshotFiles) == 0 {
			return fmt.Errorf("promo snapshot files are required when promo source is snapshot")
		}
	default:
		return fmt.Errorf("invalid promo source: %s (must be database or snapshot)", c.Source)
	}
	return nil
}

func (c *CheckoutConfig) validate() error {
	if c.MinOrderThreshold.IsNegative() {
		return fmt.Errorf("minimum order threshold cannot be negative")
	}

	if c.DefaultShippingCost.IsNegative() || c.ElevatedShipping.IsNegative() {
		return fmt.Errorf("shipping costs cannot be negative")
	}

	if c.PercentMode != "percentage" && c.PercentMode != "fraction" {
		return fmt.Errorf("invalid percent mode: %s (must be percentage or fraction)", c.PercentMode)
	}

	if c.ReconcileMode != ReconcileTransactional && c.ReconcileMode != ReconcilePostCommit {
		return fmt.Errorf("invalid reconcile mode: %s (must be transactional or post-commit)", c.ReconcileMode)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal or returns a default value.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
