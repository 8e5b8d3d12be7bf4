package repository

import (
	"context"
	"roomly/pkg/config"
	"roomly/pkg/model"
	"time"
)

const (
	CollectionName = "Reservations"
	TableName      = "reservations"
)

// ReservationRepository is the reservation store. Every call is bounded by
// the configured store timeout; a timeout or lost connection surfaces as
// ErrStoreUnavailable.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Delete(ctx context.Context, id string) error

	// FindOverlapping returns the reservations of roomID whose [start,end)
	// interval intersects [start,end), ordered by start time.
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.Reservation, error)
	FindByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Reservation, error)
	FindByRequester(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error)
	FindUpcoming(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Reservation, error)

	// SetExternalEventID records the mirrored calendar event. It fails with
	// ErrAlreadySynced when an id is already present and ErrNotFound when the
	// reservation no longer exists.
	SetExternalEventID(ctx context.Context, id string, externalEventID string) error
	FindUnsynced(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Reservation, error)

	// RunExclusive runs fn so that no other RunExclusive call for the same
	// room interleaves with it. Repository calls must use the context passed
	// to fn to take part.
	RunExclusive(ctx context.Context, roomID string, fn func(ctx context.Context) error) error
}

// NewReservationRepository returns the repository for the configured store
// backend.
func NewReservationRepository(cfg *config.Config) ReservationRepository {
	if cfg.StoreBackend == config.StorePostgres {
		return NewPostgresReservationRepository(cfg)
	}
	return NewMongoReservationRepository(cfg)
}
