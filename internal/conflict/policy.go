package conflict

import "math"

// PolicyThresholds hold the decision boundaries for resolution strategy.
type PolicyThresholds struct {
	// AutoResolve is the similarity floor for fully automatic resolution.
	AutoResolve float64
	// Merge is the similarity floor for field-level merging.
	Merge float64
	// QualityGap is the overall-quality difference beyond which one side is
	// considered clearly better.
	QualityGap float64
	// QualityTie is the overall-quality difference below which the two
	// sides are considered equivalent.
	QualityTie float64
}

// DefaultPolicyThresholds returns the standard decision boundaries.
func DefaultPolicyThresholds() PolicyThresholds {
	return PolicyThresholds{
		AutoResolve: 0.9,
		Merge:       0.8,
		QualityGap:  0.2,
		QualityTie:  0.1,
	}
}

// Policy decides how a conflict should be resolved. Automatic resolution is
// reserved for very high similarity with a clear quality winner; merging
// preserves information when quality is ambiguous; everything else defers
// to a human.
type Policy struct {
	t PolicyThresholds
}

// NewPolicy creates a policy engine with the given thresholds.
func NewPolicy(t PolicyThresholds) *Policy {
	return &Policy{t: t}
}

// AutoResolveThreshold exposes the similarity floor for automatic
// resolution; the orchestrator re-checks it before persisting.
func (p *Policy) AutoResolveThreshold() float64 {
	return p.t.AutoResolve
}

// Decide is the batch, quality-driven entry point.
func (p *Policy) Decide(a, b QualityScore, similarity float64) Strategy {
	gap := math.Abs(a.Overall - b.Overall)
	if similarity >= p.t.AutoResolve && gap > p.t.QualityGap {
		return StrategyAutomatic
	}
	if similarity >= p.t.Merge && gap <= p.t.QualityTie {
		return StrategyMerge
	}
	return StrategyManual
}

// LocalOptions configure the per-pair (local vs remote) policy variant.
type LocalOptions struct {
	AutoResolve     bool
	PreferNewerData bool
	MergeDuplicates bool
}

// DecideLocal is the flag-driven entry point used when resolving a single
// local/remote pair. With auto-resolution disabled it always skips.
func (p *Policy) DecideLocal(a, b QualityScore, similarity float64, opts LocalOptions) Strategy {
	if !opts.AutoResolve {
		return StrategySkip
	}
	if opts.MergeDuplicates && similarity >= p.t.Merge {
		return StrategyMerge
	}
	if opts.PreferNewerData {
		return StrategyAutomatic
	}
	return p.Decide(a, b, similarity)
}
