package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roomly/internal/reservations/service"
	"roomly/pkg/calendar"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/middleware"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	rooms   service.RoomLookup
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, rooms service.RoomLookup, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		rooms:   rooms,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		h.writeError(w, "Create", apperrors.Unauthorized("A bearer token is required to reserve a room"))
		return
	}

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", decodeError(err))
		return
	}

	reservation, err := h.service.Create(r.Context(), &req, requester)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		h.writeError(w, "Cancel", apperrors.Unauthorized("A bearer token is required to cancel a reservation"))
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("id"), requester); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		h.writeError(w, "ListMine", apperrors.Unauthorized("A bearer token is required to list your reservations"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	reservations, err := h.service.ListMine(r.Context(), requester, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, len(reservations), limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) ListUpcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListUpcoming", err)
		return
	}

	reservations, err := h.service.ListUpcoming(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListUpcoming", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, len(reservations), limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListUpcoming", "operation", "WritePaginated", "error", err)
	}
}

// RoomSchedule lists one page of a room's reservations ordered by start time.
func (h *ReservationHandler) RoomSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, to, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "RoomSchedule", err)
		return
	}
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "RoomSchedule", err)
		return
	}

	reservations, err := h.service.ListByRoom(r.Context(), ps.ByName("id"), from, to, limit, offset)
	if err != nil {
		h.writeError(w, "RoomSchedule", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, len(reservations), limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "RoomSchedule", "operation", "WritePaginated", "error", err)
	}
}

// RoomCalendar serves a room's schedule as an iCalendar feed.
func (h *ReservationHandler) RoomCalendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")

	room, err := h.rooms.GetByID(r.Context(), roomID)
	if err != nil {
		h.writeError(w, "RoomCalendar", err)
		return
	}

	from, to, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "RoomCalendar", err)
		return
	}

	reservations, err := h.service.RoomFeed(r.Context(), room.ID, from, to)
	if err != nil {
		h.writeError(w, "RoomCalendar", err)
		return
	}

	entries := make([]calendar.FeedEntry, 0, len(reservations))
	for _, res := range reservations {
		entries = append(entries, calendar.FeedEntry{
			UID:         res.ID + "@roomly",
			Summary:     res.Title,
			Description: fmt.Sprintf("Reserved by: %s", res.Requester.Name),
			Location:    room.Name,
			Start:       res.StartTime,
			End:         res.EndTime,
			Created:     res.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.ics"`, room.ID))
	if err := calendar.EncodeICS(w, room.Name, entries); err != nil {
		h.log.Error("failed to encode calendar feed", "handler", "RoomCalendar", "room_id", room.ID, "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.New("REQUEST_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge)
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return apperrors.InvalidInput("start_time and end_time must be RFC 3339 timestamps")
	}
	if strings.Contains(err.Error(), "cannot unmarshal") {
		return apperrors.InvalidInput("Request body has a field of the wrong type")
	}
	return apperrors.InvalidInput("Invalid request body")
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations/mine", h.ListMine)
	router.GET("/api/v1/reservations/upcoming", h.ListUpcoming)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.DELETE("/api/v1/reservations/id/:id", h.Cancel)
	router.GET("/api/v1/rooms/:id/reservations", h.RoomSchedule)
	router.GET("/api/v1/rooms/:id/calendar.ics", h.RoomCalendar)
}
