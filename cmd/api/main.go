package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vkovalov/workbot/internal/api/router"
	"github.com/vkovalov/workbot/internal/app/bootstrap"
	"github.com/vkovalov/workbot/internal/classify"
	appconfig "github.com/vkovalov/workbot/internal/config"
	"github.com/vkovalov/workbot/internal/model"
	"github.com/vkovalov/workbot/internal/observability/metrics"
	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting workbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Load the frozen classifier artifact; the server cannot run without it
	artifact, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Error("failed to load classifier artifact", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	logger.Info("classifier artifact loaded",
		"version", artifact.Version(),
		"labels", artifact.Labels(),
	)

	// Metrics registry
	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	// Stats persistence backend (memory, redis or postgres)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.BuildStatsStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build stats store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	aggregator := stats.NewAggregator(logger, stats.WithStore(store))
	if store != nil {
		if err := aggregator.Hydrate(ctx); err != nil {
			logger.Error("failed to hydrate stats", "error", err)
			os.Exit(1)
		}
	}
	if cfg.DailyResetEnabled {
		bootstrap.StartDailyReset(ctx, aggregator, logger)
	}

	// Classification service and handlers
	service := classify.NewService(artifact, aggregator, logger, engineMetrics, classify.Options{
		MaxTextLength:           cfg.MaxTextLength,
		InferenceTimeout:        cfg.InferenceTimeout,
		HighConfidenceThreshold: cfg.HighConfidenceThreshold,
	})

	r := router.New(&router.Config{
		Logger:          logger,
		ClassifyHandler: classify.NewHandler(service, logger),
		StatsHandler:    stats.NewHandler(aggregator, logger),
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
