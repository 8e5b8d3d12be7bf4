package handler

import (
	"net/http"

	"roomly/internal/rooms/service"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	directory service.RoomDirectory
	log       *logger.Logger
}

func NewRoomHandler(directory service.RoomDirectory, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		directory: directory,
		log:       log,
	}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.directory.List(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.directory.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms", h.List)
	router.GET("/api/v1/rooms/:id", h.GetByID)
}
