package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/garrettladley/storefront/internal/client/payment"
	"github.com/garrettladley/storefront/internal/metrics"
	"github.com/garrettladley/storefront/internal/migrations/postgres"
	xredis "github.com/garrettladley/storefront/internal/redis"
	"github.com/garrettladley/storefront/internal/server"
	"github.com/garrettladley/storefront/internal/server/handler"
	servermw "github.com/garrettladley/storefront/internal/server/middleware"
	"github.com/garrettladley/storefront/internal/service/checkout"
	"github.com/garrettladley/storefront/internal/service/webhook"
	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xhttp/middleware"
	"github.com/garrettladley/storefront/internal/xslog"
)

const (
	keyPort        = "port"
	keyEnv         = "env"
	keyMigrations  = "migrations"
	keyGracePeriod = "grace_period"

	webhookPath  = "/api/webhooks/payment"
	checkoutPath = "/api/checkout/preference"

	shutdownGracePeriod = 5 * time.Second
	sweepInterval       = time.Minute
)

func main() {
	_ = godotenv.Load()

	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := server.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	shutdownCoordinator := server.NewShutdownCoordinator(shutdownGracePeriod)
	baseCtx := shutdownCoordinator.BaseContext()

	checks := map[string]handler.Pinger{}

	orders, closeOrders, err := initOrderStore(ctx, cfg, logger, checks)
	if err != nil {
		return fmt.Errorf("failed to initialize order store: %w", err)
	}
	defer closeOrders()

	counters, closeCounters, err := initCounterStore(ctx, baseCtx, cfg, logger, checks)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limit counters: %w", err)
	}
	defer closeCounters()

	reg := metrics.NewRegistry()
	webhookMetrics := metrics.NewWebhook(reg)
	httpMetrics := metrics.NewHTTP(reg)

	// Services
	paymentClient := payment.NewWithAccessToken(cfg.Payment.AccessToken,
		payment.WithBaseURL(cfg.Payment.BaseURL),
		payment.WithTimeout(cfg.Payment.Timeout),
		payment.WithLogger(logger),
	)
	webhookService := webhook.NewProcessor(cfg.Payment.WebhookSecret, paymentClient, orders,
		webhook.WithMetrics(webhookMetrics),
	)
	checkoutService := checkout.NewService(paymentClient, checkout.Config{
		Currency:        cfg.Checkout.Currency,
		SuccessURL:      cfg.Checkout.SuccessURL,
		FailureURL:      cfg.Checkout.FailureURL,
		PendingURL:      cfg.Checkout.PendingURL,
		NotificationURL: cfg.Checkout.NotificationURL,
	})

	// Handlers
	webhookHandler := handler.NewWebhook(webhookService)
	checkoutHandler := handler.NewCheckout(checkoutService)
	healthHandler := handler.NewHealth(checks)

	limiter := storage.NewWindowLimiter(counters, cfg.RateLimit.Limit, cfg.RateLimit.Window)

	mux := http.NewServeMux()
	mux.Handle("POST "+webhookPath, middleware.Chain(
		http.HandlerFunc(webhookHandler.HandleWebhook),
		servermw.RateLimit(limiter, "webhook"),
	))
	mux.HandleFunc("GET "+webhookPath, webhookHandler.HandleStatus)
	mux.Handle("POST "+checkoutPath, middleware.Chain(
		http.HandlerFunc(checkoutHandler.HandleCreatePreference),
		servermw.RateLimit(limiter, "checkout"),
	))
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler(reg))

	wrapped := middleware.Chain(mux,
		middleware.Recovery,
		middleware.Logging,
		middleware.Logger(logger),
		middleware.RequestID(middleware.WithInboundHeader()),
		middleware.Metrics(httpMetrics),
		middleware.SecurityHeaders,
		middleware.Gzip,
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return baseCtx
		},
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.InfoContext(ctx, "starting server",
			xslog.Version(),
			slog.String(keyPort, cfg.Port),
			slog.String(keyEnv, string(cfg.Env)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server error", xslog.Error(err))
		}
	}()

	<-done
	logger.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	drained, err := shutdownCoordinator.Shutdown(shutdownCtx, httpServer)
	if !drained {
		logger.WarnContext(ctx, "grace period elapsed before background work finished",
			slog.Duration(keyGracePeriod, shutdownGracePeriod))
	}
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.InfoContext(ctx, "server stopped")
	return nil
}

func initOrderStore(ctx context.Context, cfg server.Config, logger *slog.Logger, checks map[string]handler.Pinger) (storage.OrderStore, func(), error) {
	if cfg.Database.URL == "" {
		if cfg.Env.IsProduction() {
			return nil, nil, errors.New("DATABASE_URL is required in production")
		}
		logger.InfoContext(ctx, "using in-memory order store (local development)")
		return storage.NewMemoryOrderStore(), func() {}, nil
	}

	pool, err := initPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	checks["postgres"] = handler.PingFunc(pool.Ping)
	return storage.NewPostgresOrderStore(pool), pool.Close, nil
}

func initPostgres(ctx context.Context, cfg server.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.InfoContext(ctx, "initializing PostgreSQL")

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	applied, err := postgres.Apply(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.InfoContext(ctx, "applied migrations", slog.Any(keyMigrations, applied))
	}

	return pool, nil
}

func initCounterStore(ctx, baseCtx context.Context, cfg server.Config, logger *slog.Logger, checks map[string]handler.Pinger) (storage.CounterStore, func(), error) {
	if cfg.Redis.URL == "" {
		if cfg.Env.IsProduction() {
			return nil, nil, errors.New("REDIS_URL is required in production")
		}
		logger.InfoContext(ctx, "using in-memory rate limit counters (local development)")
		store := storage.NewMemoryCounterStore(cfg.RateLimit.Window)
		go store.RunSweeper(baseCtx, sweepInterval)
		return store, func() {}, nil
	}

	client, err := xredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	logger.InfoContext(ctx, "using Redis rate limit counters")
	return storage.NewRedisCounterStore(storage.RedisConfig{Client: client, KeyPrefix: cfg.Redis.KeyPrefix}, cfg.RateLimit.Window),
		closeRedis(ctx, client, logger), nil
}

func closeRedis(ctx context.Context, client *redis.Client, logger *slog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close redis client", xslog.Error(err))
		}
	}
}
