package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/callsift/callsift/internal/api/router"
	appconfig "github.com/callsift/callsift/internal/config"
	"github.com/callsift/callsift/internal/conflict"
	"github.com/callsift/callsift/internal/events"
	"github.com/callsift/callsift/internal/observability/metrics"
	"github.com/callsift/callsift/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting callsift API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := events.NewPostgresStore(pool)

	var cache *conflict.ResolvedPairCache
	if cfg.RedisEnabled {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, resolved-pair cache disabled", "error", err)
		} else {
			cache = conflict.NewResolvedPairCache(client, cfg.ResolvedPairCacheTTL)
			defer client.Close()
		}
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	scorer := conflict.NewScorer(conflict.SourceWeights{
		Carrier: cfg.SourceWeightCarrier,
		Device:  cfg.SourceWeightDevice,
		Manual:  cfg.SourceWeightManual,
	})
	policy := conflict.NewPolicy(conflict.PolicyThresholds{
		AutoResolve: cfg.AutoResolveThreshold,
		Merge:       cfg.DuplicateConfidenceThreshold,
		QualityGap:  0.2,
		QualityTie:  0.1,
	})
	detector := conflict.NewDetector(store,
		conflict.DetectorConfig{
			BatchSize:          cfg.BatchSize,
			TimestampTolerance: cfg.TimestampTolerance,
		},
		logger,
		conflict.WithScorer(scorer),
		conflict.WithPolicy(policy),
		conflict.WithCache(cache),
		conflict.WithMetrics(engineMetrics),
	)

	matcher := conflict.NewMatcher(conflict.Tolerances{
		Timestamp: cfg.TimestampTolerance,
		Duration:  cfg.DurationTolerance,
	}, cfg.DuplicateConfidenceThreshold)

	conflictHandler := conflict.NewHandler(detector, store, matcher, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		ConflictHandler: conflictHandler,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
