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

	"github.com/joho/godotenv"

	"github.com/garrettladley/storefront/internal/edge"
	"github.com/garrettladley/storefront/internal/metrics"
	"github.com/garrettladley/storefront/internal/offline"
	"github.com/garrettladley/storefront/internal/server"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xhttp/middleware"
	"github.com/garrettladley/storefront/internal/xslog"
)

const (
	keyPort        = "port"
	keyOrigin      = "origin"
	keyBackend     = "backend"
	keyGracePeriod = "grace_period"

	shutdownGracePeriod = 10 * time.Second
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
	cfg, err := edge.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	origin, err := cfg.OriginURL()
	if err != nil {
		return err
	}

	caches, closeCaches, err := edge.OpenCacheStorage(ctx, logger, cfg.Cache.Backend, cfg.Cache.SQLitePath, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize cache storage: %w", err)
	}
	defer func() {
		if err := closeCaches(); err != nil {
			logger.ErrorContext(ctx, "failed to close cache storage", xslog.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg)

	precache := make([]string, 0, len(cfg.Cache.Precache))
	for _, p := range cfg.Cache.Precache {
		precache = append(precache, cfg.Resolve(p))
	}

	upstream := xhttp.NewHTTPClient(
		xhttp.WithTimeout(cfg.Cache.UpstreamTimeout),
		xhttp.WithoutRedirects(),
	)
	router := offline.NewRouter(offline.Config{
		Prefix:            cfg.Cache.Prefix,
		Version:           cfg.Cache.Version,
		Precache:          precache,
		OfflineURL:        cfg.Resolve(cfg.Cache.OfflinePath),
		SkipWaiting:       true,
		MaxEntryBytes:     cfg.Cache.MaxEntryBytes,
		RevalidateTimeout: cfg.Cache.RevalidateTimeout,
	}, caches, upstream,
		offline.WithClassifier(offline.DefaultClassifier(cfg.Cache.APIHosts...)),
		offline.WithMetrics(metrics.NewCache(reg)),
		offline.WithLogger(logger),
	)

	if err := router.Install(ctx); err != nil {
		return fmt.Errorf("failed to install cache router: %w", err)
	}

	shutdownCoordinator := server.NewShutdownCoordinator(shutdownGracePeriod)
	shutdownCoordinator.OnShutdown(router.Drain)
	baseCtx := shutdownCoordinator.BaseContext()

	go router.RunCleanup(baseCtx, cfg.Cache.CleanupInterval)

	if cfg.ControlToken == "" {
		logger.WarnContext(ctx, "CONTROL_TOKEN is empty, control endpoint disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+edge.MetricsPath, metrics.Handler(reg))
	edge.NewHandler(router, origin, cfg.ControlToken).Routes(mux)

	wrapped := middleware.Chain(mux,
		middleware.Recovery,
		middleware.Logging,
		middleware.Logger(logger),
		middleware.RequestID(middleware.WithInboundHeader()),
		middleware.Metrics(httpMetrics),
		middleware.Gzip,
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Cache.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return baseCtx
		},
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.InfoContext(ctx, "starting edge",
			xslog.Version(),
			slog.String(keyPort, cfg.Port),
			slog.String(keyOrigin, origin.String()),
			slog.String(keyBackend, cfg.Cache.Backend),
			xslog.Partition(router.Partitions().Static))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server error", xslog.Error(err))
		}
	}()

	<-done
	logger.InfoContext(ctx, "shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	drained, err := shutdownCoordinator.Shutdown(shutdownCtx, httpServer)
	if !drained {
		logger.WarnContext(ctx, "grace period elapsed with revalidations in flight",
			slog.Duration(keyGracePeriod, shutdownGracePeriod))
	}
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.InfoContext(ctx, "edge stopped")
	return nil
}
