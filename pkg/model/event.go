package model

import "time"

type ReservationEventType string

const (
	ReservationCreated ReservationEventType = "reservation.created"
	ReservationDeleted ReservationEventType = "reservation.deleted"
)

// ReservationEvent is one change-feed entry. For deletes, Reservation holds
// the last committed state of the removed record.
type ReservationEvent struct {
	Type        ReservationEventType `json:"type"`
	Reservation Reservation          `json:"reservation"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func (e ReservationEventType) Valid() bool {
	return e == ReservationCreated || e == ReservationDeleted
}
