package service

import (
	"context"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/internal/reservations/repository"
	"roomly/pkg/model"
	"time"
)

// ConflictChecker answers whether a room is free over [start,end) against
// the committed store state visible to ctx.
type ConflictChecker struct {
	repo repository.ReservationRepository
}

func NewConflictChecker(repo repository.ReservationRepository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

func (c *ConflictChecker) HasConflict(ctx context.Context, roomID string, start, end time.Time) (bool, error) {
	conflicts, err := c.FindConflicts(ctx, roomID, start, end)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns the reservations of roomID that overlap [start,end),
// ordered by start time.
func (c *ConflictChecker) FindConflicts(ctx context.Context, roomID string, start, end time.Time) ([]*model.Reservation, error) {
	if !start.Before(end) {
		return nil, reservationserrors.ErrInvalidTimeRange
	}

	candidates, err := c.repo.FindOverlapping(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	conflicts := make([]*model.Reservation, 0, len(candidates))
	for _, existing := range candidates {
		if existing.RoomID == roomID && existing.Overlaps(start, end) {
			conflicts = append(conflicts, existing)
		}
	}
	return conflicts, nil
}
