package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound = errors.New("external event not found")

	// ErrTransient marks failures worth retrying: throttling, server errors
	// and network faults.
	ErrTransient = errors.New("transient calendar failure")
)

// Event is a provider-independent calendar entry.
type Event struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Calendar is an external calendar that reservations are mirrored into.
type Calendar interface {
	CreateEvent(ctx context.Context, calendarID string, event *Event) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
