package conflict

import (
	"strings"
	"time"

	"github.com/callsift/callsift/internal/events"
)

// Tolerances bound how far two records may drift and still match.
type Tolerances struct {
	Timestamp time.Duration
	Duration  time.Duration
}

// DefaultTolerances returns the standard matching tolerances.
func DefaultTolerances() Tolerances {
	return Tolerances{Timestamp: time.Second, Duration: time.Second}
}

// Confidence contributions of the individual checks. The core checks must
// all pass (except duration, which is optional) and accumulate at least
// coreConfidenceFloor before the additional checks are considered.
const (
	lineConfidence      = 0.2
	timestampConfidence = 0.3
	numberConfidence    = 0.2
	directionConfidence = 0.1
	typeConfidence      = 0.1
	durationConfidence  = 0.1
	contactConfidence   = 0.1
	contentConfidence   = 0.1

	coreConfidenceFloor     = 0.7
	contentSimilarityFloor  = 0.8
)

// Matcher performs local (in-memory) duplicate detection: the interactive
// path that compares an incoming event against a small existing set and
// computes conflict type itself. The batch path delegates typing to the
// store; see Classifier.
type Matcher struct {
	tol       Tolerances
	threshold float64
}

// NewMatcher creates a matcher with the given tolerances and duplicate
// confidence threshold.
func NewMatcher(tol Tolerances, threshold float64) *Matcher {
	return &Matcher{tol: tol, threshold: threshold}
}

// Window returns the timestamp tolerance: the widest gap an existing event
// may have from a candidate and still match, so callers can scope the
// comparison set they fetch.
func (m *Matcher) Window() time.Duration { return m.tol.Timestamp }

// DetectDuplicate compares candidate against existing events in order and
// returns on the first whose confidence reaches the duplicate threshold.
// When none qualifies the zero MatchResult is returned (no duplicate,
// confidence 0).
func (m *Matcher) DetectDuplicate(candidate *events.Event, existing []events.Event) MatchResult {
	for i := range existing {
		if existing[i].ID == candidate.ID {
			continue
		}
		if res := m.compare(candidate, &existing[i]); res.IsDuplicate {
			return res
		}
	}
	return MatchResult{}
}

func (m *Matcher) compare(candidate, existing *events.Event) MatchResult {
	a := candidate.Comparable()
	b := existing.Comparable()

	confidence := 0.0
	var fields []string

	if a.LineID != b.LineID {
		return MatchResult{}
	}
	confidence += lineConfidence
	fields = append(fields, "line_id")

	delta := absDuration(a.Timestamp.Sub(b.Timestamp))
	if delta > m.tol.Timestamp {
		return MatchResult{}
	}
	confidence += timestampConfidence
	fields = append(fields, "timestamp")

	if a.Number != b.Number {
		return MatchResult{}
	}
	confidence += numberConfidence
	fields = append(fields, "number")

	if a.Direction != b.Direction {
		return MatchResult{}
	}
	confidence += directionConfidence
	fields = append(fields, "direction")

	if a.Type != b.Type {
		return MatchResult{}
	}
	confidence += typeConfidence
	fields = append(fields, "type")

	// Duration agreement strengthens a call match but its absence does not
	// reject the pair.
	if a.Type == events.TypeCall && a.Duration != nil && b.Duration != nil {
		if absInt(*a.Duration-*b.Duration) <= int(m.tol.Duration.Seconds()) {
			confidence += durationConfidence
			fields = append(fields, "duration")
		}
	}

	if confidence < coreConfidenceFloor {
		return MatchResult{}
	}

	if a.ContactID != nil && b.ContactID != nil && *a.ContactID == *b.ContactID {
		confidence += contactConfidence
		fields = append(fields, "contact_id")
	}

	if a.Type == events.TypeSMS && a.Content != nil && b.Content != nil {
		sim := Similarity(strings.ToLower(*a.Content), strings.ToLower(*b.Content))
		if sim > contentSimilarityFloor {
			confidence += contentConfidence
			fields = append(fields, "content")
		}
	}

	if confidence > 1 {
		confidence = 1
	}

	conflictType := m.classify(a, b, delta)
	if conflictType == TypeExact {
		confidence = 1
	}
	if confidence < m.threshold {
		return MatchResult{}
	}

	return MatchResult{
		IsDuplicate:    true,
		MatchedID:      existing.ID,
		Confidence:     confidence,
		MatchingFields: fields,
		Type:           conflictType,
	}
}

func (m *Matcher) classify(a, b events.Comparable, delta time.Duration) Type {
	if a.Timestamp.Equal(b.Timestamp) &&
		a.LineID == b.LineID &&
		a.Number == b.Number &&
		a.Direction == b.Direction &&
		a.Type == b.Type &&
		equalIntPtr(a.Duration, b.Duration) &&
		equalStringPtr(a.Content, b.Content) {
		return TypeExact
	}
	if delta <= m.tol.Timestamp {
		return TypeTimeVariance
	}
	return TypeFuzzy
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
