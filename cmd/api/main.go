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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/salon-scheduler/cmd/mainconfig"
	"github.com/wolfman30/salon-scheduler/internal/api/router"
	"github.com/wolfman30/salon-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/salon-scheduler/internal/bookings"
	"github.com/wolfman30/salon-scheduler/internal/cart"
	"github.com/wolfman30/salon-scheduler/internal/catalog"
	appconfig "github.com/wolfman30/salon-scheduler/internal/config"
	"github.com/wolfman30/salon-scheduler/internal/events"
	"github.com/wolfman30/salon-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/salon-scheduler/internal/http/middleware"
	observemetrics "github.com/wolfman30/salon-scheduler/internal/observability/metrics"
	"github.com/wolfman30/salon-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting salon-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.cleanup()

	go func() {
		if err := app.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("booking event relay stopped", "error", err)
		}
	}()
	go app.limiter.RunEviction(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler http.Handler
	relay   *events.Relay
	limiter *httpmiddleware.RateLimiter
	cleanup func()
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	loc, err := time.LoadLocation(cfg.SalonTimezone)
	if err != nil {
		return nil, fmt.Errorf("load salon timezone: %w", err)
	}
	reg, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	policy, err := cart.PolicyByName(cfg.CartDiscountPolicy)
	if err != nil {
		return nil, err
	}
	metricsHandler, metrics := setupMetrics()

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}
	store, closeStore, err := bootstrap.BuildBookingStore(ctx, cfg, redisClient, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	cleanups = append(cleanups, closeStore)

	awsCfg := loadAWSConfig(ctx, cfg, logger)
	email, provider, err := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("email provider selected", "provider", provider)
	sinks, closeSinks := bootstrap.BuildEventSinks(cfg, awsCfg, email, logger)
	cleanups = append(cleanups, closeSinks)

	gateway := bootstrap.BuildCalendarGateway(ctx, cfg, loc, logger, metrics)
	resolver := bookings.NewResolver(bookings.ResolverConfig{
		Catalog:  reg,
		Store:    store,
		Gateway:  gateway,
		Location: loc,
		Logger:   logger.With("component", "availability"),
		Metrics:  metrics,
	})
	manager := bookings.NewManager(bookings.ManagerConfig{
		Resolver:      resolver,
		SalonLocation: cfg.SalonLocation,
		HorizonDays:   cfg.BookingHorizonDays,
		Logger:        logger.With("component", "bookings"),
		Metrics:       metrics,
	})
	carts := cart.NewService(cart.Config{
		Catalog:        reg,
		Store:          bootstrap.BuildCartStore(cfg, redisClient),
		Policy:         policy,
		WhatsAppNumber: cfg.SalonWhatsAppNumber,
		Logger:         logger.With("component", "cart"),
		Metrics:        metrics,
	})
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	handler := router.New(&router.Config{
		Logger:       logger,
		Catalog:      handlers.NewCatalogHandler(reg),
		Availability: handlers.NewAvailabilityHandler(resolver, logger),
		Bookings: handlers.NewBookingHandler(manager, handlers.HandoffConfig{
			SalonName:      cfg.SalonName,
			SalonLocation:  cfg.SalonLocation,
			WhatsAppNumber: cfg.SalonWhatsAppNumber,
		}, logger),
		Carts:              handlers.NewCartHandler(carts, logger),
		AdminLogin:         handlers.NewAdminLoginHandler(cfg.AdminPassword, cfg.AdminJWTSecret, cfg.AdminTokenTTL, logger),
		BookingStream:      handlers.NewBookingStreamHandler(manager, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		BookingLimiter:     limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes disabled")
	}

	return &app{
		handler: handler,
		relay:   events.NewRelay(manager, sinks, logger.With("component", "events"), metrics),
		limiter: limiter,
		cleanup: cleanup,
	}, nil
}

// setupMetrics builds a dedicated registry so tests can build the app twice.
func setupMetrics() (http.Handler, *observemetrics.SchedulerMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observemetrics.NewSchedulerMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics
}

// loadAWSConfig returns nil when no AWS-backed feature is configured or the
// SDK config cannot be loaded.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *aws.Config {
	if !mainconfig.NeedsAWS(cfg) {
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config", "error", err)
		return nil
	}
	return &awsCfg
}
