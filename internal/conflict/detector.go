package conflict

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/callsift/callsift/internal/events"
	"github.com/callsift/callsift/internal/observability/metrics"
	"github.com/callsift/callsift/pkg/logging"
)

var detectorTracer = otel.Tracer("callsift.internal.conflict")

// DetectorConfig bounds a single detection pass.
type DetectorConfig struct {
	BatchSize          int
	TimestampTolerance time.Duration
}

// DefaultDetectorConfig returns the standard batch bounds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{BatchSize: 100, TimestampTolerance: time.Second}
}

// Detector coordinates a full detection-and-resolution pass over a user's
// events: candidate lookup, per-pair hydration, quality scoring, policy
// decision, and automatic resolution. It is the only layer allowed to
// swallow store errors; the pure components below it propagate everything.
type Detector struct {
	store      events.Store
	scorer     *Scorer
	classifier Classifier
	policy     *Policy
	merger     *Merger
	cache      *ResolvedPairCache
	metrics    *metrics.EngineMetrics
	logger     *logging.Logger
	cfg        DetectorConfig
	now        func() time.Time
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

// WithScorer overrides the default quality scorer.
func WithScorer(s *Scorer) DetectorOption {
	return func(d *Detector) { d.scorer = s }
}

// WithPolicy overrides the default resolution policy.
func WithPolicy(p *Policy) DetectorOption {
	return func(d *Detector) { d.policy = p }
}

// WithMerger overrides the default merge engine.
func WithMerger(m *Merger) DetectorOption {
	return func(d *Detector) { d.merger = m }
}

// WithCache wires the resolved-pair suppression cache.
func WithCache(c *ResolvedPairCache) DetectorOption {
	return func(d *Detector) { d.cache = c }
}

// WithMetrics wires engine Prometheus metrics.
func WithMetrics(m *metrics.EngineMetrics) DetectorOption {
	return func(d *Detector) { d.metrics = m }
}

// WithClock overrides the detector's clock.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a detector over the given store.
func NewDetector(store events.Store, cfg DetectorConfig, logger *logging.Logger, opts ...DetectorOption) *Detector {
	if store == nil {
		panic("conflict: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultDetectorConfig().BatchSize
	}
	if cfg.TimestampTolerance <= 0 {
		cfg.TimestampTolerance = DefaultDetectorConfig().TimestampTolerance
	}

	d := &Detector{
		store:  store,
		scorer: NewScorer(DefaultSourceWeights()),
		policy: NewPolicy(DefaultPolicyThresholds()),
		merger: NewMerger(),
		logger: logger.WithComponent("detector"),
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectBatch runs one detection pass for a user. Store errors are logged
// and yield an empty result; a single bad pair is dropped without aborting
// the batch. Conflicts are emitted in the order the store returned pairs.
func (d *Detector) DetectBatch(ctx context.Context, userID string) ([]ConflictEvent, BatchSummary) {
	ctx, span := detectorTracer.Start(ctx, "conflict.detect_batch")
	defer span.End()
	span.SetAttributes(attribute.String("callsift.user_id", userID))

	start := time.Now()
	summary := BatchSummary{
		UserID:     userID,
		ByStrategy: make(map[Strategy]int),
	}

	pairs, err := d.store.FindConflictCandidates(ctx, userID, d.cfg.BatchSize, d.cfg.TimestampTolerance)
	if err != nil {
		span.RecordError(err)
		d.logger.Error("candidate lookup failed", "user_id", userID, "error", err)
		d.metrics.ObserveBatchDuration("store_error", time.Since(start).Seconds())
		summary.Elapsed = time.Since(start)
		return nil, summary
	}
	summary.Candidates = len(pairs)

	var conflicts []ConflictEvent
	for _, pair := range pairs {
		if pair.OriginalID == pair.DuplicateID {
			summary.Dropped++
			d.metrics.ObserveDroppedPair()
			continue
		}

		pairID := PairID(pair.OriginalID, pair.DuplicateID)
		if d.cache.IsResolved(ctx, pairID) {
			summary.Suppressed++
			continue
		}

		conflictType, similarity, err := d.classifier.FromStore(pair.ConflictType, pair.Similarity)
		if err != nil {
			d.logger.Warn("dropping malformed candidate pair", "pair_id", pairID, "error", err)
			summary.Dropped++
			d.metrics.ObserveDroppedPair()
			continue
		}

		original, duplicate, err := d.hydratePair(ctx, pair)
		if err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				d.logger.Debug("dropping pair with missing record", "pair_id", pairID)
			} else {
				d.logger.Warn("hydration failed for pair", "pair_id", pairID, "error", err)
			}
			summary.Dropped++
			d.metrics.ObserveDroppedPair()
			continue
		}

		originalQuality := d.scorer.Score(original)
		duplicateQuality := d.scorer.Score(duplicate)
		strategy := d.policy.Decide(originalQuality, duplicateQuality, similarity)

		conflicts = append(conflicts, ConflictEvent{
			ID:               pairID,
			UserID:           userID,
			Original:         *original,
			Duplicate:        *duplicate,
			Type:             conflictType,
			Similarity:       similarity,
			OriginalQuality:  originalQuality,
			DuplicateQuality: duplicateQuality,
			Strategy:         strategy,
			DetectedAt:       d.now(),
		})
		summary.Emitted++
		summary.ByStrategy[strategy]++
		d.metrics.ObserveConflict(string(conflictType), string(strategy))
	}

	summary.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("callsift.candidates", summary.Candidates),
		attribute.Int("callsift.emitted", summary.Emitted),
		attribute.Int("callsift.dropped", summary.Dropped),
	)
	d.metrics.ObserveBatchDuration("ok", summary.Elapsed.Seconds())
	d.logger.Info("detection pass complete",
		"user_id", userID,
		"candidates", summary.Candidates,
		"emitted", summary.Emitted,
		"dropped", summary.Dropped,
		"suppressed", summary.Suppressed,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)
	return conflicts, summary
}

// hydratePair fetches both records concurrently and awaits them jointly.
func (d *Detector) hydratePair(ctx context.Context, pair events.CandidatePair) (*events.Event, *events.Event, error) {
	ctx, span := detectorTracer.Start(ctx, "conflict.hydrate_pair")
	defer span.End()
	span.SetAttributes(
		attribute.String("callsift.original_id", pair.OriginalID),
		attribute.String("callsift.duplicate_id", pair.DuplicateID),
	)

	var original, duplicate *events.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := d.store.GetEventByID(gctx, pair.OriginalID)
		original = e
		return err
	})
	g.Go(func() error {
		e, err := d.store.GetEventByID(gctx, pair.DuplicateID)
		duplicate = e
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	return original, duplicate, nil
}

// ResolveAutomatically applies every conflict whose strategy is automatic
// and whose similarity clears the auto-resolve threshold. Persistence
// failures skip the individual conflict and never abort the batch.
func (d *Detector) ResolveAutomatically(ctx context.Context, conflicts []ConflictEvent) []ResolvedConflict {
	var resolved []ResolvedConflict
	for _, c := range conflicts {
		if c.Strategy != StrategyAutomatic || c.Similarity < d.policy.AutoResolveThreshold() {
			continue
		}

		merged := d.merger.MergeByQuality(c.Original, c.Duplicate, c.OriginalQuality, c.DuplicateQuality)

		resolutionID, err := d.store.PersistResolution(ctx, events.ResolutionRecord{
			UserID:       c.UserID,
			OriginalID:   c.Original.ID,
			DuplicateID:  c.Duplicate.ID,
			Strategy:     string(c.Strategy),
			ConflictType: string(c.Type),
			Similarity:   c.Similarity,
			ResolvedBy:   "system",
			AutoResolved: true,
		})
		if err != nil {
			d.logger.Warn("failed to persist resolution", "conflict_id", c.ID, "error", err)
			d.metrics.ObserveAutoResolution("failed")
			continue
		}

		if err := d.cache.MarkResolved(ctx, c.ID); err != nil {
			d.logger.Debug("failed to cache resolved pair", "conflict_id", c.ID, "error", err)
		}

		resolved = append(resolved, ResolvedConflict{
			ConflictID:       c.ID,
			ResolutionID:     resolutionID,
			Strategy:         c.Strategy,
			MergedEvent:      &merged,
			Original:         c.Original,
			Duplicate:        c.Duplicate,
			OriginalQuality:  c.OriginalQuality,
			DuplicateQuality: c.DuplicateQuality,
			ResolvedAt:       d.now(),
			AutoResolved:     true,
		})
		d.metrics.ObserveAutoResolution("resolved")
	}
	return resolved
}
