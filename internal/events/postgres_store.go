package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the store needs; tests substitute a
// pgxmock pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of the comm_events and
// conflict_resolutions tables.
type PostgresStore struct {
	db querier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// candidateWindowFactor widens the candidate join window beyond the
// timestamp tolerance so near-miss pairs surface as fuzzy conflicts instead
// of being invisible to review.
const candidateWindowFactor = 5

// FindConflictCandidates self-joins comm_events on the composite key
// (line_id, number, direction, type) within the widened timestamp window.
// Conflict type and similarity are computed here, in SQL; the batch path
// treats this classification as authoritative.
func (s *PostgresStore) FindConflictCandidates(ctx context.Context, userID string, batchSize int, tolerance time.Duration) ([]CandidatePair, error) {
	tolSeconds := tolerance.Seconds()
	query := `
		SELECT a.id, b.id,
		       CASE
		           WHEN a.ts = b.ts
		                AND a.duration_seconds IS NOT DISTINCT FROM b.duration_seconds
		                AND a.content IS NOT DISTINCT FROM b.content THEN 'exact'
		           WHEN abs(extract(epoch FROM (b.ts - a.ts))) <= $3 THEN 'time_variance'
		           ELSE 'fuzzy'
		       END AS conflict_type,
		       round(LEAST(1.0,
		           0.6
		           + 0.3 * greatest(0, 1 - abs(extract(epoch FROM (b.ts - a.ts))) / ($3 * $4))
		           + CASE WHEN a.duration_seconds IS NOT DISTINCT FROM b.duration_seconds THEN 0.05 ELSE 0 END
		           + CASE WHEN a.content IS NOT DISTINCT FROM b.content THEN 0.05 ELSE 0 END
		       )::numeric, 3)::float8 AS similarity
		FROM comm_events a
		JOIN comm_events b
		  ON b.user_id = a.user_id
		 AND b.line_id = a.line_id
		 AND b.number = a.number
		 AND b.direction = a.direction
		 AND b.event_type = a.event_type
		 AND b.id > a.id
		 AND abs(extract(epoch FROM (b.ts - a.ts))) <= $3 * $4
		WHERE a.user_id = $1
		ORDER BY a.ts, a.id
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, batchSize, tolSeconds, candidateWindowFactor)
	if err != nil {
		return nil, fmt.Errorf("events: find conflict candidates: %w", err)
	}
	defer rows.Close()

	var pairs []CandidatePair
	for rows.Next() {
		var p CandidatePair
		if err := rows.Scan(&p.OriginalID, &p.DuplicateID, &p.ConflictType, &p.Similarity); err != nil {
			return nil, fmt.Errorf("events: scan candidate pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// eventColumns is the select list scanEvent expects, in order.
const eventColumns = `id, user_id, line_id, ts, number, direction, event_type,
	       duration_seconds, content, contact_id, source, synced_at,
	       created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var source *string
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.LineID,
		&e.Timestamp,
		&e.Number,
		&e.Direction,
		&e.Type,
		&e.DurationSeconds,
		&e.Content,
		&e.ContactID,
		&source,
		&e.SyncedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if source != nil {
		v := Source(*source)
		e.Source = &v
	}
	return &e, nil
}

// GetEventByID fetches a full record.
func (s *PostgresStore) GetEventByID(ctx context.Context, id string) (*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM comm_events
		WHERE id = $1
	`
	e, err := scanEvent(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("events: get event %s: %w", id, err)
	}
	return e, nil
}

// FindRecentEvents returns one line's events within window of around, the
// comparison set for a local duplicate check.
func (s *PostgresStore) FindRecentEvents(ctx context.Context, userID, lineID string, around time.Time, window time.Duration) ([]Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM comm_events
		WHERE user_id = $1
		  AND line_id = $2
		  AND ts BETWEEN $3::timestamptz - make_interval(secs => $4)
		             AND $3::timestamptz + make_interval(secs => $4)
		ORDER BY ts, id
	`
	rows, err := s.db.Query(ctx, query, userID, lineID, around, window.Seconds())
	if err != nil {
		return nil, fmt.Errorf("events: find recent events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("events: scan recent event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// PersistResolution upserts the audit row for a pair; re-resolving the same
// pair updates in place, so callers may safely retry.
func (s *PostgresStore) PersistResolution(ctx context.Context, rec ResolutionRecord) (string, error) {
	id := uuid.New()
	query := `
		INSERT INTO conflict_resolutions
		    (id, user_id, original_id, duplicate_id, strategy, conflict_type,
		     similarity, resolved_by, auto_resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (original_id, duplicate_id) DO UPDATE SET
		    strategy = EXCLUDED.strategy,
		    conflict_type = EXCLUDED.conflict_type,
		    similarity = EXCLUDED.similarity,
		    resolved_by = EXCLUDED.resolved_by,
		    auto_resolved = EXCLUDED.auto_resolved,
		    resolved_at = now()
		RETURNING id
	`
	var out string
	if err := s.db.QueryRow(ctx, query,
		id,
		rec.UserID,
		rec.OriginalID,
		rec.DuplicateID,
		rec.Strategy,
		rec.ConflictType,
		rec.Similarity,
		rec.ResolvedBy,
		rec.AutoResolved,
	).Scan(&out); err != nil {
		return "", fmt.Errorf("events: persist resolution: %w", err)
	}
	return out, nil
}

// GetAggregateMetrics returns resolution counts for a user.
func (s *PostgresStore) GetAggregateMetrics(ctx context.Context, userID string) (*ConflictMetrics, error) {
	query := `
		SELECT count(*),
		       count(*) FILTER (WHERE auto_resolved),
		       count(*) FILTER (WHERE NOT auto_resolved AND resolved_by <> ''),
		       count(*) FILTER (WHERE NOT auto_resolved AND resolved_by = '')
		FROM conflict_resolutions
		WHERE user_id = $1
	`
	var m ConflictMetrics
	if err := s.db.QueryRow(ctx, query, userID).Scan(
		&m.TotalConflicts,
		&m.AutoResolved,
		&m.ManualResolved,
		&m.Pending,
	); err != nil {
		return nil, fmt.Errorf("events: aggregate metrics: %w", err)
	}
	if m.TotalConflicts == 0 {
		return nil, ErrMetricsNotFound
	}
	m.AutoRate = float64(m.AutoResolved) / float64(m.TotalConflicts)
	m.ManualRate = float64(m.ManualResolved) / float64(m.TotalConflicts)
	return &m, nil
}

// ListActiveUsers returns users with events created since the given time.
func (s *PostgresStore) ListActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM comm_events
		WHERE created_at >= $1
		ORDER BY user_id
	`
	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("events: list active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("events: scan user id: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
