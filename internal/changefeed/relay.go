package changefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/pkg/logger"
	"roomly/pkg/model"
)

// Relay forwards store change events to the event topic. A publish failure
// stops the source before its checkpoint moves, and the relay restarts the
// source after a pause, so delivery is at-least-once.
type Relay struct {
	source    Source
	publisher Publisher
	log       *logger.Logger
	restart   time.Duration
}

func NewRelay(source Source, publisher Publisher, log *logger.Logger) *Relay {
	return &Relay{
		source:    source,
		publisher: publisher,
		log:       log,
		restart:   5 * time.Second,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.source.Run(ctx, r.forward)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("source stopped unexpectedly")
		}
		r.log.Error("Change feed interrupted, restarting", "retry_in", r.restart, "error", err)

		timer := time.NewTimer(r.restart)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (r *Relay) forward(ctx context.Context, event model.ReservationEvent) error {
	if err := r.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s for %s: %w", event.Type, event.Reservation.ID, err)
	}
	r.log.Info("Relayed reservation event",
		"type", event.Type,
		"reservation_id", event.Reservation.ID,
		"room_id", event.Reservation.RoomID,
	)
	return nil
}
