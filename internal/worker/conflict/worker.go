package conflictworker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/callsift/callsift/internal/config"
	"github.com/callsift/callsift/internal/conflict"
	"github.com/callsift/callsift/internal/events"
	"github.com/callsift/callsift/internal/observability/metrics"
	"github.com/callsift/callsift/pkg/logging"
)

// Run starts the periodic conflict worker and blocks until ctx is canceled.
// Each tick it enumerates users with recent events and runs a detection and
// auto-resolution pass per user.
func Run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	if cfg == nil {
		return fmt.Errorf("conflict worker requires config")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("conflict worker requires DATABASE_URL")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("worker failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	store := events.NewPostgresStore(pool)

	var cache *conflict.ResolvedPairCache
	if cfg.RedisEnabled {
		client := buildRedisClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, resolved-pair cache disabled", "error", err)
		} else {
			cache = conflict.NewResolvedPairCache(client, cfg.ResolvedPairCacheTTL)
			defer client.Close()
		}
	}

	detector := buildDetector(cfg, store, cache, logger)

	logger.Info("conflict worker started",
		"interval", cfg.WorkerInterval.String(),
		"lookback", cfg.WorkerLookback.String(),
	)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("conflict worker stopped")
			return nil
		case <-ticker.C:
			runPass(ctx, cfg, store, detector, logger)
		}
	}
}

func runPass(ctx context.Context, cfg *appconfig.Config, store events.Store, detector *conflict.Detector, logger *logging.Logger) {
	since := time.Now().Add(-cfg.WorkerLookback)
	users, err := store.ListActiveUsers(ctx, since)
	if err != nil {
		logger.Error("failed to list active users", "error", err)
		return
	}

	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		conflicts, summary := detector.DetectBatch(ctx, userID)
		resolved := detector.ResolveAutomatically(ctx, conflicts)
		logger.Info("worker pass for user",
			"user_id", userID,
			"emitted", summary.Emitted,
			"auto_resolved", len(resolved),
		)
	}
}

func buildDetector(cfg *appconfig.Config, store events.Store, cache *conflict.ResolvedPairCache, logger *logging.Logger) *conflict.Detector {
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

	return conflict.NewDetector(store,
		conflict.DetectorConfig{
			BatchSize:          cfg.BatchSize,
			TimestampTolerance: cfg.TimestampTolerance,
		},
		logger,
		conflict.WithScorer(scorer),
		conflict.WithPolicy(policy),
		conflict.WithCache(cache),
		conflict.WithMetrics(metrics.NewEngineMetrics(nil)),
	)
}

func buildRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}
