package events

import (
	"context"
	"time"
)

// CandidatePair is one store-reported candidate duplicate pair. ConflictType
// and Similarity are computed by the store's composite-key query; on the
// batch path they are treated as authoritative.
type CandidatePair struct {
	OriginalID   string  `json:"original_id"`
	DuplicateID  string  `json:"duplicate_id"`
	ConflictType string  `json:"conflict_type"`
	Similarity   float64 `json:"similarity"`
}

// ResolutionRecord is the audit row written when a conflict is resolved.
type ResolutionRecord struct {
	UserID       string
	OriginalID   string
	DuplicateID  string
	Strategy     string
	ConflictType string
	Similarity   float64
	ResolvedBy   string
	AutoResolved bool
}

// ConflictMetrics aggregates resolution activity for a user.
type ConflictMetrics struct {
	TotalConflicts int     `json:"total_conflicts"`
	AutoResolved   int     `json:"auto_resolved"`
	ManualResolved int     `json:"manual_resolved"`
	Pending        int     `json:"pending"`
	AutoRate       float64 `json:"auto_rate"`
	ManualRate     float64 `json:"manual_rate"`
}

// Store is the persistence collaborator for the conflict engine. The engine
// never owns storage; it only reads candidates and records resolutions.
type Store interface {
	// FindConflictCandidates runs the composite-key query: pairs of events
	// agreeing on (line_id, number, direction, type) with timestamps within
	// tolerance of each other.
	FindConflictCandidates(ctx context.Context, userID string, batchSize int, tolerance time.Duration) ([]CandidatePair, error)

	// GetEventByID hydrates a full record. Returns ErrEventNotFound when the
	// id does not exist.
	GetEventByID(ctx context.Context, id string) (*Event, error)

	// FindRecentEvents returns a user's events on one line with timestamps
	// within window of around, ordered by timestamp. This is the comparison
	// set for local duplicate checks.
	FindRecentEvents(ctx context.Context, userID, lineID string, around time.Time, window time.Duration) ([]Event, error)

	// PersistResolution records a resolution and returns its id. Writing the
	// same pair twice updates the existing row, so re-runs are safe.
	PersistResolution(ctx context.Context, rec ResolutionRecord) (string, error)

	// GetAggregateMetrics returns resolution counts for a user, or
	// ErrMetricsNotFound when nothing has been recorded.
	GetAggregateMetrics(ctx context.Context, userID string) (*ConflictMetrics, error)

	// ListActiveUsers returns users with events created since the given time.
	ListActiveUsers(ctx context.Context, since time.Time) ([]string, error)
}
