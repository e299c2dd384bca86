package events

import "errors"

var (
	// ErrEventNotFound is returned when an event id does not exist.
	ErrEventNotFound = errors.New("events: event not found")

	// ErrMetricsNotFound is returned when a user has no recorded resolutions.
	ErrMetricsNotFound = errors.New("events: no conflict metrics for user")
)
