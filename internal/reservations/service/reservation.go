package service

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
	"strings"
	"time"
)

type ReservationService interface {
	Create(ctx context.Context, req *model.ReservationRequest, requester *model.Requester) (*model.Reservation, error)
	Cancel(ctx context.Context, id string, requester *model.Requester) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Reservation, error)
	RoomFeed(ctx context.Context, roomID string, from, to *time.Time) ([]*model.Reservation, error)
	ListMine(ctx context.Context, requester *model.Requester, limit int, offset int64) ([]*model.Reservation, error)
	ListUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
}

// RoomLookup is the part of the room directory the booking flow needs.
type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*model.Room, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	rooms     RoomLookup
	checker   *ConflictChecker
	validator *validator.ReservationValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	rooms RoomLookup,
	validator *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		rooms:     rooms,
		checker:   NewConflictChecker(repo),
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reservationService) Create(ctx context.Context, req *model.ReservationRequest, requester *model.Requester) (*model.Reservation, error) {
	sanitizer.ReservationRequest(req)
	if err := s.validate(ctx, req, requester); err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		RoomID:    req.RoomID,
		Title:     req.Title,
		Requester: sanitizer.Requester(*requester),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	var err error
	switch s.cfg.BookingConsistency {
	case config.ConsistencyRecheck:
		err = s.createWithRecheck(ctx, reservation)
	case config.ConsistencyRelaxed:
		err = s.checkAndInsert(ctx, reservation)
	default:
		err = s.repo.RunExclusive(ctx, reservation.RoomID, func(txCtx context.Context) error {
			return s.checkAndInsert(txCtx, reservation)
		})
	}
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Info("Reservation rejected due to conflict",
				"room_id", reservation.RoomID,
				"start_time", reservation.StartTime,
				"end_time", reservation.EndTime,
			)
		} else {
			s.cfg.Log.Error("Failed to create reservation", "room_id", reservation.RoomID, "error", err)
		}
		return nil, s.mapError(err, "Failed to create reservation")
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"room_id", reservation.RoomID,
		"start_time", reservation.StartTime,
		"end_time", reservation.EndTime,
		"consistency", s.cfg.BookingConsistency,
	)
	return reservation, nil
}

// checkAndInsert runs the conflict check and the insert against the same
// ctx, so inside RunExclusive both see and write the same snapshot.
func (s *reservationService) checkAndInsert(ctx context.Context, reservation *model.Reservation) error {
	conflicts, err := s.checker.FindConflicts(ctx, reservation.RoomID, reservation.StartTime, reservation.EndTime)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return conflictError(reservation.RoomID, conflicts[0])
	}
	return s.repo.Create(ctx, reservation)
}

// createWithRecheck inserts first and then looks for overlapping records.
// The earliest committed reservation wins; a loser removes itself.
func (s *reservationService) createWithRecheck(ctx context.Context, reservation *model.Reservation) error {
	if err := s.checkAndInsert(ctx, reservation); err != nil {
		return err
	}

	overlapping, err := s.checker.FindConflicts(ctx, reservation.RoomID, reservation.StartTime, reservation.EndTime)
	if err != nil {
		s.rollback(reservation)
		return err
	}

	for _, other := range overlapping {
		if other.ID == reservation.ID {
			continue
		}
		if other.CommittedBefore(reservation) {
			s.rollback(reservation)
			return conflictError(reservation.RoomID, other)
		}
	}
	return nil
}

func (s *reservationService) rollback(reservation *model.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, reservation.ID); err != nil && !errors.Is(err, reservationserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to remove losing reservation", "id", reservation.ID, "error", err)
		return
	}
	s.cfg.Log.Warn("Removed reservation that lost an overlap race", "id", reservation.ID, "room_id", reservation.RoomID)
}

func (s *reservationService) Cancel(ctx context.Context, id string, requester *model.Requester) error {
	if requester == nil || strings.TrimSpace(requester.Email) == "" {
		return apperrors.Unauthorized("An authenticated requester is required")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !existing.Requester.SameAs(*requester) {
		s.cfg.Log.Warn("Cancellation refused for non-owner",
			"id", id,
			"owner", existing.Requester.Email,
			"requester", requester.Email,
		)
		return apperrors.Forbidden("Only the requester who made the reservation can cancel it")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return s.mapError(err, "Failed to cancel reservation")
	}

	s.cfg.Log.Info("Reservation cancelled successfully", "id", id, "room_id", existing.RoomID)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, s.mapError(err, "Failed to retrieve reservation")
	}
	return reservation, nil
}

func (s *reservationService) ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	if err := s.checkRoomRange(ctx, roomID, from, to); err != nil {
		return nil, err
	}

	reservations, err := s.repo.FindByRoom(ctx, roomID, from, to, config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset))
	if err != nil {
		s.cfg.Log.Error("Failed to list room reservations", "room_id", roomID, "error", err)
		return nil, s.mapError(err, "Failed to retrieve room reservations")
	}
	return reservations, nil
}

// RoomFeed returns every reservation of a room in [from, to), paging through
// the store. Without from it starts RoomFeedLookback before now.
func (s *reservationService) RoomFeed(ctx context.Context, roomID string, from, to *time.Time) ([]*model.Reservation, error) {
	if from == nil && s.cfg.RoomFeedLookback > 0 {
		since := s.now().UTC().Add(-s.cfg.RoomFeedLookback)
		from = &since
	}
	if err := s.checkRoomRange(ctx, roomID, from, to); err != nil {
		return nil, err
	}

	var all []*model.Reservation
	for offset := int64(0); ; offset += config.DefaultPaginationLimit {
		page, err := s.repo.FindByRoom(ctx, roomID, from, to, config.DefaultPaginationLimit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to page room feed", "room_id", roomID, "offset", offset, "error", err)
			return nil, s.mapError(err, "Failed to retrieve room reservations")
		}
		all = append(all, page...)
		if len(page) < config.DefaultPaginationLimit {
			return all, nil
		}
	}
}

func (s *reservationService) checkRoomRange(ctx context.Context, roomID string, from, to *time.Time) error {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return apperrors.InvalidInput("'to' must be after 'from'")
	}
	return nil
}

func (s *reservationService) ListMine(ctx context.Context, requester *model.Requester, limit int, offset int64) ([]*model.Reservation, error) {
	if requester == nil || strings.TrimSpace(requester.Email) == "" {
		return nil, apperrors.Unauthorized("An authenticated requester is required")
	}

	email := sanitizer.NormalizeEmail(requester.Email)
	reservations, err := s.repo.FindByRequester(ctx, email, config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset))
	if err != nil {
		s.cfg.Log.Error("Failed to list requester reservations", "email", email, "error", err)
		return nil, s.mapError(err, "Failed to retrieve reservations")
	}
	return reservations, nil
}

func (s *reservationService) ListUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	reservations, err := s.repo.FindUpcoming(ctx, s.now().UTC(), config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset))
	if err != nil {
		s.cfg.Log.Error("Failed to list upcoming reservations", "error", err)
		return nil, s.mapError(err, "Failed to retrieve upcoming reservations")
	}
	return reservations, nil
}

func (s *reservationService) validate(ctx context.Context, req *model.ReservationRequest, requester *model.Requester) error {
	details := map[string]any{}

	if err := s.validator.Validate(req, requester); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.Internal("Failed to validate reservation", err)
		}
		for field, message := range verrs.Details() {
			details[field] = message
		}
	}

	if req != nil && req.RoomID != "" {
		if _, err := s.rooms.GetByID(ctx, req.RoomID); err != nil {
			if !apperrors.HasCode(err, apperrors.CodeNotFound) {
				return err
			}
			details["room_id"] = fmt.Sprintf("room %s does not exist", req.RoomID)
		}
	}

	if len(details) > 0 {
		s.cfg.Log.Warn("Reservation validation failed", "details", details)
		return apperrors.Validation("Invalid reservation", details)
	}
	return nil
}

func (s *reservationService) mapError(err error, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, reservationserrors.ErrTimeConflict):
		return apperrors.Conflict("The room is already reserved for an overlapping time")
	case errors.Is(err, reservationserrors.ErrInvalidTimeRange):
		return apperrors.Validation("Invalid reservation", map[string]any{"end_time": "end_time must be after start_time"})
	case errors.Is(err, reservationserrors.ErrStoreUnavailable):
		return apperrors.Unavailable("Reservation store", err)
	default:
		return apperrors.Internal(message, err)
	}
}

func conflictError(roomID string, existing *model.Reservation) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("Room %s is already reserved from %s to %s",
		roomID,
		existing.StartTime.UTC().Format(time.RFC3339),
		existing.EndTime.UTC().Format(time.RFC3339),
	)).WithDetails(map[string]any{
		"room_id":                    roomID,
		"conflicting_reservation_id": existing.ID,
		"conflicting_start_time":     existing.StartTime.UTC().Format(time.RFC3339),
		"conflicting_end_time":       existing.EndTime.UTC().Format(time.RFC3339),
	})
}
