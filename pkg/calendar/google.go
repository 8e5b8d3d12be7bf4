package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type googleCalendar struct {
	service *gcal.Service
}

// NewGoogleCalendar authenticates with a service-account credentials file.
func NewGoogleCalendar(ctx context.Context, credentialsFile string) (Calendar, error) {
	service, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google calendar client: %w", err)
	}
	return &googleCalendar{service: service}, nil
}

func (g *googleCalendar) CreateEvent(ctx context.Context, calendarID string, event *Event) (string, error) {
	created, err := g.service.Events.Insert(calendarID, &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       eventDateTime(event.Start, event.TimeZone),
		End:         eventDateTime(event.End, event.TimeZone),
	}).Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleErr("insert event", err)
	}
	return created.Id, nil
}

func (g *googleCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return classifyGoogleErr("delete event", err)
	}
	return nil
}

func eventDateTime(t time.Time, zone string) *gcal.EventDateTime {
	if loc, err := time.LoadLocation(zone); err == nil {
		t = t.In(loc)
	}
	return &gcal.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: zone,
	}
}

func classifyGoogleErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone:
			return fmt.Errorf("failed to %s: %w: %w", op, ErrEventNotFound, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return fmt.Errorf("failed to %s: %w: %w", op, ErrTransient, err)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
