package conflict

import (
	"time"

	"github.com/callsift/callsift/internal/events"
)

// mergeDurationTolerance is the maximum call-duration spread (seconds)
// within which the longer duration is treated as the more complete capture
// of the same call.
const mergeDurationTolerance = 2

// Merger combines two records describing the same real-world event. The two
// merge flavors encode different trust assumptions and stay separate code
// paths: MergeByQuality trusts whichever record scored better, while
// MergeRemoteAuthoritative trusts the server/carrier copy for identity
// fields.
type Merger struct {
	now func() time.Time
}

// NewMerger creates a merger.
func NewMerger() *Merger {
	return &Merger{now: time.Now}
}

// WithClock overrides the merge timestamp clock.
func (m *Merger) WithClock(now func() time.Time) *Merger {
	m.now = now
	return m
}

// MergeByQuality selects the higher-quality event as the base (ties break
// toward a) and fills its absent optional fields from the other side. The
// merged record never has fewer non-nil optional fields than the union of
// its inputs.
func (m *Merger) MergeByQuality(a, b events.Event, qa, qb QualityScore) events.Event {
	base, other := a, b
	if qb.Overall > qa.Overall {
		base, other = b, a
	}

	merged := base.Clone()
	fillOptional(&merged, &other)
	preferLongerDuration(&merged, &base, &other)
	merged.UpdatedAt = m.now()
	return merged
}

// MergeRemoteAuthoritative merges a locally-collected record into its
// server/carrier counterpart. The remote side's timestamp, number,
// direction, and type win unconditionally; optional fields prefer whichever
// side is non-nil.
func (m *Merger) MergeRemoteAuthoritative(local, remote events.Event) events.Event {
	merged := remote.Clone()
	fillOptional(&merged, &local)
	preferLongerDuration(&merged, &remote, &local)
	merged.UpdatedAt = m.now()
	return merged
}

func fillOptional(merged, other *events.Event) {
	if merged.DurationSeconds == nil && other.DurationSeconds != nil {
		v := *other.DurationSeconds
		merged.DurationSeconds = &v
	}
	if merged.Content == nil && other.Content != nil {
		v := *other.Content
		merged.Content = &v
	}
	if merged.ContactID == nil && other.ContactID != nil {
		v := *other.ContactID
		merged.ContactID = &v
	}
}

// preferLongerDuration applies the call rule: when both sides captured a
// duration and they differ by at most the tolerance, the longer one wins.
func preferLongerDuration(merged, base, other *events.Event) {
	if !base.IsCall() || base.DurationSeconds == nil || other.DurationSeconds == nil {
		return
	}
	if absInt(*base.DurationSeconds-*other.DurationSeconds) > mergeDurationTolerance {
		return
	}
	longer := *base.DurationSeconds
	if *other.DurationSeconds > longer {
		longer = *other.DurationSeconds
	}
	v := longer
	merged.DurationSeconds = &v
}
