package changefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roomly/pkg/model"
)

const SchemaVersion = "1"

var ErrMalformedEvent = errors.New("malformed reservation event")

// Encode serializes a change-feed event for the wire.
func Encode(event model.ReservationEvent) ([]byte, error) {
	if err := check(event); err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// Decode parses and checks a wire payload.
func Decode(data []byte) (model.ReservationEvent, error) {
	var event model.ReservationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return model.ReservationEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := check(event); err != nil {
		return model.ReservationEvent{}, err
	}
	return event, nil
}

func check(event model.ReservationEvent) error {
	if !event.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, event.Type)
	}
	if event.Reservation.ID == "" {
		return fmt.Errorf("%w: missing reservation id", ErrMalformedEvent)
	}
	return nil
}

func newEvent(eventType model.ReservationEventType, reservation model.Reservation, occurredAt time.Time) model.ReservationEvent {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return model.ReservationEvent{
		Type:        eventType,
		Reservation: reservation,
		OccurredAt:  occurredAt.UTC(),
	}
}
