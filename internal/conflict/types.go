package conflict

import (
	"fmt"
	"time"

	"github.com/callsift/callsift/internal/events"
)

// Type classifies how a duplicate pair differs.
type Type string

const (
	// TypeExact means every comparable field is equal.
	TypeExact Type = "exact"
	// TypeTimeVariance means the records agree except for a timestamp delta
	// within tolerance.
	TypeTimeVariance Type = "time_variance"
	// TypeFuzzy means the core fields matched with lower-confidence extras.
	TypeFuzzy Type = "fuzzy"
)

// ParseType validates a store-reported conflict type label.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeExact, TypeTimeVariance, TypeFuzzy:
		return Type(s), true
	}
	return "", false
}

// Strategy is the resolution decision for a conflict.
type Strategy string

const (
	// StrategyAutomatic keeps/merges toward the clearly better record.
	StrategyAutomatic Strategy = "automatic"
	// StrategyMerge combines fields of two near-equal-quality records.
	StrategyMerge Strategy = "merge"
	// StrategyManual defers the decision to a human.
	StrategyManual Strategy = "manual"
	// StrategySkip is the local-path no-op when auto-resolution is disabled.
	StrategySkip Strategy = "skip"
)

// QualityScore grades a single record. Each component is in [0,1] and
// rounded to 3 decimals; Overall is the weighted combination.
type QualityScore struct {
	Completeness      float64 `json:"completeness"`
	SourceReliability float64 `json:"source_reliability"`
	Freshness         float64 `json:"freshness"`
	Overall           float64 `json:"overall"`
}

// ConflictEvent is one detected candidate pair with everything the
// resolution policy decided about it. It is a pure value; nothing is
// persisted until a resolution is applied.
type ConflictEvent struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	Original         events.Event `json:"original"`
	Duplicate        events.Event `json:"duplicate"`
	Type             Type         `json:"conflict_type"`
	Similarity       float64      `json:"similarity"`
	OriginalQuality  QualityScore `json:"original_quality"`
	DuplicateQuality QualityScore `json:"duplicate_quality"`
	Strategy         Strategy     `json:"resolution_strategy"`
	DetectedAt       time.Time    `json:"detected_at"`
}

// PairID derives a stable conflict id from two event ids. The ids are
// ordered so the same pair yields the same id regardless of which side the
// store reported first.
func PairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("conflict:%s:%s", a, b)
}

// ResolvedConflict is the audit value produced by applying a resolution.
// Both originals and their scores are preserved so no event is silently
// lost.
type ResolvedConflict struct {
	ConflictID       string        `json:"conflict_id"`
	ResolutionID     string        `json:"resolution_id"`
	Strategy         Strategy      `json:"resolution_strategy"`
	MergedEvent      *events.Event `json:"merged_event,omitempty"`
	Original         events.Event  `json:"original"`
	Duplicate        events.Event  `json:"duplicate"`
	OriginalQuality  QualityScore  `json:"original_quality"`
	DuplicateQuality QualityScore  `json:"duplicate_quality"`
	ResolvedAt       time.Time     `json:"resolved_at"`
	AutoResolved     bool          `json:"auto_resolved"`
}

// MatchResult is the outcome of matching a candidate against a set of
// existing events.
type MatchResult struct {
	IsDuplicate    bool     `json:"is_duplicate"`
	MatchedID      string   `json:"matched_id,omitempty"`
	Confidence     float64  `json:"confidence"`
	MatchingFields []string `json:"matching_fields,omitempty"`
	Type           Type     `json:"conflict_type,omitempty"`
}

// BatchSummary aggregates one detection-and-resolution pass. It is returned
// to the caller; downstream consumers (dashboards, sync monitors) react to
// the value instead of registering listeners on the engine.
type BatchSummary struct {
	UserID       string           `json:"user_id"`
	Candidates   int              `json:"candidates"`
	Emitted      int              `json:"emitted"`
	Dropped      int              `json:"dropped"`
	Suppressed   int              `json:"suppressed"`
	ByStrategy   map[Strategy]int `json:"by_strategy"`
	AutoResolved int              `json:"auto_resolved"`
	Elapsed      time.Duration    `json:"elapsed"`
}
