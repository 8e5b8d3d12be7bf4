// Package calendarsync mirrors reservations into an external calendar from
// the reservation change feed.
package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "roomly/internal/reservations/errors"
	"roomly/pkg/calendar"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
)

const fallbackRoomName = "Room"

// ReservationStore is the slice of the reservation repository the bridge
// reads and writes.
type ReservationStore interface {
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	SetExternalEventID(ctx context.Context, id string, externalEventID string) error
	FindUnsynced(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Reservation, error)
}

type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*model.Room, error)
}

type Options struct {
	CalendarID   string
	TimeZone     string
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Bridge applies reservation events to the external calendar. Failures are
// logged as EXTERNAL_SYNC_ERROR and never surface to the booking flow.
type Bridge struct {
	store       ReservationStore
	rooms       RoomLookup
	calendar    calendar.Calendar
	calendarID  string
	timeZone    string
	location    *time.Location
	maxAttempts int
	backoff     time.Duration
	log         *logger.Logger
}

func NewBridge(store ReservationStore, rooms RoomLookup, cal calendar.Calendar, opts Options, log *logger.Logger) (*Bridge, error) {
	if store == nil || cal == nil || log == nil {
		return nil, fmt.Errorf("store, calendar and logger are required")
	}
	if opts.CalendarID == "" {
		return nil, fmt.Errorf("calendar id cannot be empty")
	}
	location, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", opts.TimeZone, err)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &Bridge{
		store:       store,
		rooms:       rooms,
		calendar:    cal,
		calendarID:  opts.CalendarID,
		timeZone:    location.String(),
		location:    location,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
		log:         log,
	}, nil
}

// Handle processes one change-feed event. It returns an error only when ctx
// is cancelled, so the transport does not acknowledge an interrupted event.
func (b *Bridge) Handle(ctx context.Context, event model.ReservationEvent) error {
	switch event.Type {
	case model.ReservationCreated:
		b.handleCreated(ctx, event.Reservation)
	case model.ReservationDeleted:
		b.handleDeleted(ctx, event.Reservation)
	default:
		b.log.Warn("Ignoring unknown reservation event", "type", event.Type, "reservation_id", event.Reservation.ID)
	}
	return ctx.Err()
}

func (b *Bridge) handleCreated(ctx context.Context, reservation model.Reservation) {
	current, err := b.store.FindByID(ctx, reservation.ID)
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		b.log.Info("Reservation cancelled before it was mirrored", "reservation_id", reservation.ID)
		return
	case err != nil:
		b.logSyncError("load reservation", reservation.ID, err)
		return
	case current.IsSynced():
		b.log.Debug("Reservation already mirrored", "reservation_id", current.ID, "external_event_id", current.ExternalEventID)
		return
	}

	if err := b.Mirror(ctx, current); err != nil {
		b.logSyncError("create event", current.ID, err)
	}
}

// Mirror creates the external event for an unsynced reservation and records
// its id. If another worker recorded an id first, or the reservation was
// cancelled meanwhile, the event just created is removed again.
func (b *Bridge) Mirror(ctx context.Context, reservation *model.Reservation) error {
	event := b.buildEvent(ctx, reservation)

	var externalID string
	err := b.withRetry(ctx, "create event", func() error {
		id, err := b.calendar.CreateEvent(ctx, b.calendarID, event)
		externalID = id
		return err
	})
	if err != nil {
		return err
	}

	err = b.store.SetExternalEventID(ctx, reservation.ID, externalID)
	switch {
	case err == nil:
		b.log.Info("Reservation mirrored to calendar",
			"reservation_id", reservation.ID,
			"external_event_id", externalID,
			"calendar_id", b.calendarID,
		)
		return nil
	case errors.Is(err, reservationserrors.ErrAlreadySynced), errors.Is(err, reservationserrors.ErrNotFound):
		b.log.Info("Discarding superseded calendar event", "reservation_id", reservation.ID, "external_event_id", externalID, "reason", err)
		b.discard(ctx, reservation.ID, externalID)
		return nil
	default:
		// The store did not take the id; drop the event so a later sweep
		// can mirror the reservation cleanly.
		b.discard(ctx, reservation.ID, externalID)
		return fmt.Errorf("record external event id: %w", err)
	}
}

func (b *Bridge) discard(ctx context.Context, reservationID, externalID string) {
	err := b.withRetry(ctx, "delete event", func() error {
		return b.calendar.DeleteEvent(ctx, b.calendarID, externalID)
	})
	if err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
		b.logSyncError("delete superseded event", reservationID, err)
	}
}

func (b *Bridge) handleDeleted(ctx context.Context, reservation model.Reservation) {
	if !reservation.IsSynced() {
		b.log.Info("Deleted reservation was never mirrored, nothing to remove", "reservation_id", reservation.ID)
		return
	}

	err := b.withRetry(ctx, "delete event", func() error {
		return b.calendar.DeleteEvent(ctx, b.calendarID, reservation.ExternalEventID)
	})
	switch {
	case err == nil:
		b.log.Info("Calendar event removed",
			"reservation_id", reservation.ID,
			"external_event_id", reservation.ExternalEventID,
		)
	case errors.Is(err, calendar.ErrEventNotFound):
		b.log.Info("Calendar event already gone", "reservation_id", reservation.ID, "external_event_id", reservation.ExternalEventID)
	default:
		b.logSyncError("delete event", reservation.ID, err)
	}
}

func (b *Bridge) buildEvent(ctx context.Context, reservation *model.Reservation) *calendar.Event {
	roomName := fallbackRoomName
	if b.rooms != nil {
		room, err := b.rooms.GetByID(ctx, reservation.RoomID)
		if err != nil {
			b.log.Warn("Room lookup failed, using generic label", "room_id", reservation.RoomID, "error", err)
		} else if room.Name != "" {
			roomName = room.Name
		}
	}

	return &calendar.Event{
		Summary:     fmt.Sprintf("Reservation: %s (%s)", roomName, reservation.Title),
		Description: fmt.Sprintf("Reserved by: %s\nE-mail: %s", reservation.Requester.Name, reservation.Requester.Email),
		Location:    roomName,
		Start:       reservation.StartTime.In(b.location),
		End:         reservation.EndTime.In(b.location),
		TimeZone:    b.timeZone,
	}
}

// withRetry retries transient calendar failures with exponential backoff,
// up to maxAttempts. With the default of one attempt it calls fn once.
func (b *Bridge) withRetry(ctx context.Context, operation string, fn func() error) error {
	backoff := b.backoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !calendar.IsTransient(err) || attempt >= b.maxAttempts {
			return err
		}

		b.log.Warn("Transient calendar failure, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", b.maxAttempts,
			"retry_in", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (b *Bridge) logSyncError(operation, reservationID string, err error) {
	syncErr := apperrors.ExternalSync(operation, err)
	b.log.Error(syncErr.Message,
		"code", syncErr.Code,
		"operation", operation,
		"reservation_id", reservationID,
		"error", err,
	)
}
