package model

import "time"

type Reservation struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID          string    `json:"room_id" bson:"room_id"`
	Title           string    `json:"title" bson:"title"`
	Requester       Requester `json:"requester" bson:"requester"`
	StartTime       time.Time `json:"start_time" bson:"start_time"`
	EndTime         time.Time `json:"end_time" bson:"end_time"`
	ExternalEventID string    `json:"external_event_id,omitempty" bson:"external_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// ReservationRequest is the client-supplied booking intent. The requester
// comes from the authenticated identity, never from the body.
type ReservationRequest struct {
	RoomID    string    `json:"room_id" validate:"required,max=64"`
	Title     string    `json:"title" validate:"required,min=1,max=200"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

func (r *Reservation) Overlaps(start, end time.Time) bool {
	return Overlaps(r.StartTime, r.EndTime, start, end)
}

// IsSynced reports whether the calendar mirror has recorded an external event.
func (r *Reservation) IsSynced() bool {
	return r.ExternalEventID != ""
}

// CommittedBefore orders reservations by creation time, then id, which is the
// tie-break used when two overlapping inserts race.
func (r *Reservation) CommittedBefore(other *Reservation) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.Before(other.CreatedAt)
	}
	return r.ID < other.ID
}
