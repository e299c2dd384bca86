package events

import "time"

// Direction indicates whether the event was received or placed.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Type distinguishes calls from text messages.
type Type string

const (
	TypeCall Type = "call"
	TypeSMS  Type = "sms"
)

// Source tags which channel produced the record.
type Source string

const (
	SourceCarrier Source = "carrier"
	SourceDevice  Source = "device"
	SourceManual  Source = "manual"
)

// Event is a single call or SMS record. The same real-world event can be
// ingested from more than one channel, so two Events may describe one call.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LineID    string    `json:"line_id"`
	Timestamp time.Time `json:"timestamp"`
	Number    string    `json:"number"`
	Direction Direction `json:"direction"`
	Type      Type      `json:"type"`

	// Optional fields. DurationSeconds applies to calls, Content to SMS.
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Content         *string    `json:"content,omitempty"`
	ContactID       *string    `json:"contact_id,omitempty"`
	Source          *Source    `json:"source,omitempty"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCall reports whether the event is a voice call.
func (e *Event) IsCall() bool { return e.Type == TypeCall }

// IsSMS reports whether the event is a text message.
func (e *Event) IsSMS() bool { return e.Type == TypeSMS }

// Comparable lists exactly the fields duplicate matching may inspect.
// Matching code works off this struct rather than the full Event so a field
// that exists on only one variant (call vs SMS) cannot be compared by
// accident.
type Comparable struct {
	LineID    string
	Timestamp time.Time
	Number    string
	Direction Direction
	Type      Type
	Duration  *int
	Content   *string
	ContactID *string
}

// Comparable projects the event onto its matchable fields.
func (e *Event) Comparable() Comparable {
	return Comparable{
		LineID:    e.LineID,
		Timestamp: e.Timestamp,
		Number:    e.Number,
		Direction: e.Direction,
		Type:      e.Type,
		Duration:  e.DurationSeconds,
		Content:   e.Content,
		ContactID: e.ContactID,
	}
}

// Clone returns a deep copy; pointer-valued optional fields are duplicated
// so callers can mutate the copy without aliasing the original.
func (e Event) Clone() Event {
	out := e
	if e.DurationSeconds != nil {
		v := *e.DurationSeconds
		out.DurationSeconds = &v
	}
	if e.Content != nil {
		v := *e.Content
		out.Content = &v
	}
	if e.ContactID != nil {
		v := *e.ContactID
		out.ContactID = &v
	}
	if e.Source != nil {
		v := *e.Source
		out.Source = &v
	}
	if e.SyncedAt != nil {
		v := *e.SyncedAt
		out.SyncedAt = &v
	}
	return out
}
