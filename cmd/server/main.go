package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/mesa/internal"
	"github.com/dukerupert/mesa/internal/cookie"
	"github.com/dukerupert/mesa/internal/efood"
	"github.com/dukerupert/mesa/internal/handler/storefront"
	"github.com/dukerupert/mesa/internal/jobs"
	"github.com/dukerupert/mesa/internal/middleware"
	"github.com/dukerupert/mesa/internal/router"
	"github.com/dukerupert/mesa/internal/routes"
	"github.com/dukerupert/mesa/internal/service"
	"github.com/dukerupert/mesa/internal/session"
	"github.com/dukerupert/mesa/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	sentryCleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer sentryCleanup()

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("mesa")
	telemetry.InitBusinessMetrics("mesa")

	// Session store and sweeper
	store := session.NewStore(cfg.Session.TTL)
	sweeper := jobs.NewSessionSweeper(store, cfg.Session.SweepInterval, logger)
	go sweeper.Run(ctx)

	// Upstream catalog client
	client := efood.NewHTTPClient(efood.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		Logger:  logger,
	})

	// Initialize services
	catalogService := service.NewCatalogService(client, logger, cfg.Catalog.CacheTTL)
	cartService := service.NewCartService(store, catalogService, logger)
	checkoutService := service.NewCheckoutService(store, client, logger)

	// Session cookies are Secure outside dev
	cookies := cookie.NewConfig(cfg.Env == "prod")

	// Build route dependencies
	storefrontDeps := routes.StorefrontDeps{
		RestaurantHandler: storefront.NewRestaurantHandler(catalogService),
		CartHandler:       storefront.NewCartHandler(cartService, cookies),
		CheckoutHandler:   storefront.NewCheckoutHandler(checkoutService),
	}

	// Configure rate limiting
	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.CORS(cfg.CORS.AllowedOrigins),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		defaultRateLimiter.Middleware,
		router.Logger(logger),
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)

	// Start server with graceful shutdown
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
