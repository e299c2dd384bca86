package conflict

import (
	"testing"
	"time"

	"github.com/callsift/callsift/internal/events"
)

func newTestMatcher() *Matcher {
	return NewMatcher(DefaultTolerances(), 0.8)
}

func TestDetectDuplicateExactCopy(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	candidate := callEvent("ev-1", ts)
	copy := callEvent("ev-2", ts)

	res := m.DetectDuplicate(&candidate, []events.Event{copy})
	if !res.IsDuplicate {
		t.Fatal("field-for-field copy should be a duplicate")
	}
	if res.Type != TypeExact {
		t.Fatalf("expected exact conflict, got %s", res.Type)
	}
	if res.Confidence < 0.9 {
		t.Fatalf("expected confidence >= 0.9, got %v", res.Confidence)
	}
	if res.MatchedID != "ev-2" {
		t.Fatalf("expected matched id ev-2, got %s", res.MatchedID)
	}
}

func TestDetectDuplicateRejectsCoreMismatch(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candidate := callEvent("ev-1", ts)

	tests := []struct {
		name   string
		mutate func(*events.Event)
	}{
		{"different number", func(e *events.Event) { e.Number = "+15559999999" }},
		{"different line", func(e *events.Event) { e.LineID = "L2" }},
		{"different direction", func(e *events.Event) { e.Direction = events.DirectionOutbound }},
		{"different type", func(e *events.Event) { e.Type = events.TypeSMS; e.DurationSeconds = nil }},
		{"timestamp outside tolerance", func(e *events.Event) { e.Timestamp = ts.Add(10 * time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := callEvent("ev-2", ts)
			tt.mutate(&other)
			res := m.DetectDuplicate(&candidate, []events.Event{other})
			if res.IsDuplicate {
				t.Fatal("expected no duplicate")
			}
			if res.Confidence != 0 {
				t.Fatalf("rejected match must report confidence 0, got %v", res.Confidence)
			}
		})
	}
}

func TestDetectDuplicateTimeVariance(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	candidate := callEvent("ev-1", ts)
	shifted := callEvent("ev-2", ts.Add(time.Second))

	res := m.DetectDuplicate(&candidate, []events.Event{shifted})
	if !res.IsDuplicate {
		t.Fatal("1s delta within tolerance should match")
	}
	if res.Type != TypeTimeVariance {
		t.Fatalf("expected time_variance, got %s", res.Type)
	}
	if res.Confidence < 0.8 {
		t.Fatalf("expected confidence >= 0.8, got %v", res.Confidence)
	}
}

func TestDetectDuplicateDurationContribution(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	candidate := callEvent("ev-1", ts)
	near := callEvent("ev-2", ts.Add(time.Second))
	farDuration := 300
	far := callEvent("ev-3", ts.Add(time.Second))
	far.DurationSeconds = &farDuration

	nearRes := m.DetectDuplicate(&candidate, []events.Event{near})
	farRes := m.DetectDuplicate(&candidate, []events.Event{far})

	if !nearRes.IsDuplicate || !farRes.IsDuplicate {
		t.Fatal("both should match on core fields")
	}
	if nearRes.Confidence <= farRes.Confidence {
		t.Fatalf("duration agreement should raise confidence: %v vs %v",
			nearRes.Confidence, farRes.Confidence)
	}
}

func TestDetectDuplicateSMSContent(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	body := "See you at the meeting tomorrow"
	bodyCased := "SEE YOU AT THE MEETING TOMORROW"
	candidate := events.Event{
		ID: "sms-1", UserID: "user-1", LineID: "L1", Timestamp: ts,
		Number: "+15551234567", Direction: events.DirectionInbound,
		Type: events.TypeSMS, Content: &body, CreatedAt: ts, UpdatedAt: ts,
	}
	other := candidate.Clone()
	other.ID = "sms-2"
	other.Timestamp = ts.Add(time.Second)
	other.Content = &bodyCased

	res := m.DetectDuplicate(&candidate, []events.Event{other})
	if !res.IsDuplicate {
		t.Fatal("expected SMS duplicate")
	}
	if !contains(res.MatchingFields, "content") {
		t.Fatalf("content should match case-insensitively, fields: %v", res.MatchingFields)
	}
}

func TestDetectDuplicateContactContribution(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	contact := "contact-7"
	candidate := callEvent("ev-1", ts)
	candidate.ContactID = &contact
	other := callEvent("ev-2", ts.Add(time.Second))
	other.ContactID = &contact

	res := m.DetectDuplicate(&candidate, []events.Event{other})
	if !contains(res.MatchingFields, "contact_id") {
		t.Fatalf("shared contact should be a matching field, got %v", res.MatchingFields)
	}
}

func TestDetectDuplicateSkipsSelf(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candidate := callEvent("ev-1", ts)

	res := m.DetectDuplicate(&candidate, []events.Event{candidate})
	if res.IsDuplicate {
		t.Fatal("an event must not match itself")
	}
}

func TestDetectDuplicateFirstMatchWins(t *testing.T) {
	m := newTestMatcher()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candidate := callEvent("ev-1", ts)

	miss := callEvent("ev-2", ts)
	miss.Number = "+15550000000"
	first := callEvent("ev-3", ts.Add(time.Second))
	second := callEvent("ev-4", ts)

	res := m.DetectDuplicate(&candidate, []events.Event{miss, first, second})
	if res.MatchedID != "ev-3" {
		t.Fatalf("expected first qualifying event to win, got %s", res.MatchedID)
	}
}

func contains(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
