package conflict

import (
	"math"
	"time"

	"github.com/callsift/callsift/internal/events"
)

// SourceWeights maps each channel to its trust weight.
type SourceWeights struct {
	Carrier float64
	Device  float64
	Manual  float64
}

// DefaultSourceWeights returns the standard channel trust table.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{Carrier: 0.9, Device: 0.7, Manual: 0.5}
}

const (
	// The identity fields (id, user, line, timestamp, number, direction,
	// type) are always present; completeness varies only over the optional
	// set {duration, content, contact_id}.
	requiredFieldCount = 7
	optionalFieldCount = 3

	// Freshness decays linearly to zero over this window.
	freshnessWindowDays = 7.0

	unknownSourceWeight = 0.5

	completenessWeight = 0.4
	reliabilityWeight  = 0.4
	freshnessWeight    = 0.2
)

// Scorer computes per-record quality scores. It holds only immutable
// configuration; Score is a pure function of the event and the clock.
type Scorer struct {
	weights SourceWeights
	now     func() time.Time
}

// NewScorer creates a scorer with the given source weights.
func NewScorer(weights SourceWeights) *Scorer {
	return &Scorer{weights: weights, now: time.Now}
}

// WithClock overrides the scorer's clock. Used by tests and by callers that
// need reproducible freshness.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score grades a single record. Total over well-formed events; never fails.
func (s *Scorer) Score(e *events.Event) QualityScore {
	completeness := round3(s.completeness(e))
	reliability := round3(s.sourceReliability(e))
	freshness := round3(s.freshness(e))

	overall := round3(completenessWeight*completeness +
		reliabilityWeight*reliability +
		freshnessWeight*freshness)

	return QualityScore{
		Completeness:      completeness,
		SourceReliability: reliability,
		Freshness:         freshness,
		Overall:           overall,
	}
}

func (s *Scorer) completeness(e *events.Event) float64 {
	filled := 0
	if e.DurationSeconds != nil {
		filled++
	}
	if e.Content != nil {
		filled++
	}
	if e.ContactID != nil {
		filled++
	}
	return float64(requiredFieldCount+filled) / float64(requiredFieldCount+optionalFieldCount)
}

// sourceReliability looks up the channel trust weight. An absent source tag
// is scored as device-collected; a present but unrecognized tag is scored
// at the unknown weight. These two cases intentionally differ.
func (s *Scorer) sourceReliability(e *events.Event) float64 {
	if e.Source == nil {
		return s.weights.Device
	}
	switch *e.Source {
	case events.SourceCarrier:
		return s.weights.Carrier
	case events.SourceDevice:
		return s.weights.Device
	case events.SourceManual:
		return s.weights.Manual
	default:
		return unknownSourceWeight
	}
}

func (s *Scorer) freshness(e *events.Event) float64 {
	ref := e.CreatedAt
	if e.SyncedAt != nil {
		ref = *e.SyncedAt
	}
	ageDays := s.now().Sub(ref).Hours() / 24
	f := 1 - ageDays/freshnessWindowDays
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
