package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kart-checkout/internal/config"
	"kart-checkout/internal/database"
	"kart-checkout/internal/handler"
	"kart-checkout/internal/inventory"
	"kart-checkout/internal/metrics"
	"kart-checkout/internal/pricing"
	"kart-checkout/internal/promo"
	"kart-checkout/internal/repository"
	"kart-checkout/internal/router"
	"kart-checkout/internal/service"
	"kart-checkout/internal/shipping"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, os.Stdout)
	logger.Info().Msg("starting kart-checkout API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	txm := repository.NewTxManager(pool, logger)

	// Promo codes
	lookup, closeLookup, err := newPromoLookup(ctx, cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo lookup: %w", err)
	}
	defer closeLookup()

	// Pricing
	table := shipping.NewTable(cfg.Checkout.DefaultShippingCost, cfg.Checkout.ElevatedShipping)
	engine, err := pricing.NewEngine(table, pricing.Options{
		MinOrderThreshold: cfg.Checkout.MinOrderThreshold,
		PercentMode:       pricing.PercentMode(cfg.Checkout.PercentMode),
		ClampFlatDiscount: cfg.Checkout.ClampFlatDiscount,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize pricing engine: %w", err)
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	checkoutService, err := service.NewCheckoutService(
		orderRepo,
		txm,
		inventory.NewReconciler(productRepo, logger),
		promo.NewResolver(lookup, logger),
		engine,
		service.CheckoutOptions{
			Mode:    service.ReconcileMode(cfg.Checkout.ReconcileMode),
			Metrics: m,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(checkoutService, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, router.Options{
		APIKey:   cfg.Auth.APIKey,
		Metrics:  m,
		Gatherer: reg,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("reconcile_mode", cfg.Checkout.ReconcileMode).
			Str("promo_source", cfg.Promo.Source).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// In-flight checkouts finish their persistence before the pool closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPromoLookup builds the configured promo source, optionally behind a
// Redis read-through cache. The returned func releases its resources.
func newPromoLookup(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (promo.Lookup, func(), error) {
	var (
		lookup  promo.Lookup
		closers []func()
	)

	switch cfg.Promo.Source {
	case config.PromoSourceSnapshot:
		var s3Loader promo.Loader
		if cfg.S3.Enabled {
			l, err := promo.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
			if err != nil {
				logger.Warn().
					Err(err).
					Msg("failed to initialise S3 loader, falling back to local file system only")
			} else {
				s3Loader = l
			}
		} else {
			logger.Info().Msg("using local file system for promo snapshots (S3 disabled)")
		}

		loader := promo.NewFallbackLoader(s3Loader, promo.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)
		store, err := promo.NewSnapshotStore(ctx, &promo.SnapshotConfig{FilePaths: cfg.Promo.SnapshotFiles}, loader, logger)
		if err != nil {
			return nil, nil, err
		}
		lookup = store
		closers = append(closers, func() { _ = store.Close() })

	default:
		lookup = repository.NewPromoCodeRepository(pool, logger)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unreachable, promo cache will fall through")
		}
		lookup = promo.NewCachedLookup(lookup, client, cfg.Redis.TTL, logger)
		closers = append(closers, func() { _ = client.Close() })
	}

	return lookup, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
