package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/insighttxn/txn-analytics-go/internal/config"
	"github.com/insighttxn/txn-analytics-go/internal/handler"
	"github.com/insighttxn/txn-analytics-go/internal/infra/cache"
	"github.com/insighttxn/txn-analytics-go/internal/infra/client"
	"github.com/insighttxn/txn-analytics-go/internal/infra/observability"
	"github.com/insighttxn/txn-analytics-go/internal/infra/resilience"
	"github.com/insighttxn/txn-analytics-go/internal/infra/store"
	"github.com/insighttxn/txn-analytics-go/internal/ingest"
	"github.com/insighttxn/txn-analytics-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrent_clean", cfg.MaxConcurrentClean),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "txn-analytics")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache & store ---
	cleanCache := cache.New[*ingest.Result](cfg.CacheTTL)
	registry := store.NewMemory()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrentClean,
	}
	cb := resilience.NewCircuitBreaker("dataset-host")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrentClean)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := client.NewCSVFetcher(httpClient, cb, resilienceCfg, cfg.MaxUploadBytes)

	// --- Services ---
	datasets := service.NewDatasets(
		registry,
		cleanCache,
		fetcher,
		bulkhead,
		metrics,
		logger,
		cfg.MaxUploadBytes,
	)
	analytics := service.NewAnalytics(registry, metrics, logger)

	var sessions *service.Sessions
	if cfg.SessionSecret != "" {
		sessions = service.NewSessions([]byte(cfg.SessionSecret), cfg.SessionTTL, logger)
		logger.Info("session auth enabled", zap.Duration("session_ttl", cfg.SessionTTL))
	} else {
		logger.Warn("session auth: SESSION_SECRET not set, running in single-user mode")
	}

	// --- Router ---
	router := handler.NewRouter(datasets, analytics, sessions, metrics, logger, cfg.MaxUploadBytes)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
