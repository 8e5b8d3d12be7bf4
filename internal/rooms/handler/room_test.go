package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockRoomDirectory struct {
	rooms map[string]*model.Room
	err   error
}

func (m *mockRoomDirectory) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if m.err != nil {
		return nil, m.err
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Room", id)
	}
	return room, nil
}

func (m *mockRoomDirectory) List(ctx context.Context) ([]*model.Room, error) {
	if m.err != nil {
		return nil, m.err
	}
	rooms := make([]*model.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func newTestHandler(directory *mockRoomDirectory) *RoomHandler {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewRoomHandler(directory, log)
}

func TestRoomHandler_GetByID(t *testing.T) {
	directory := &mockRoomDirectory{rooms: map[string]*model.Room{
		"R1": {ID: "R1", Name: "Sala Azul", Capacity: 8, Amenities: []string{"TV", "Whiteboard"}},
	}}
	h := newTestHandler(directory)

	tests := []struct {
		name         string
		id           string
		expectStatus int
	}{
		{"existing room", "R1", http.StatusOK},
		{"unknown room", "R9", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+tt.id, nil)
			w := httptest.NewRecorder()

			h.GetByID(w, req, httprouter.Params{{Key: "id", Value: tt.id}})

			if w.Code != tt.expectStatus {
				t.Fatalf("expected status %d, got %d", tt.expectStatus, w.Code)
			}
			if tt.expectStatus != http.StatusOK {
				return
			}
			var body struct {
				Data model.Room `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Data.Name != "Sala Azul" || len(body.Data.Amenities) != 2 {
				t.Errorf("unexpected room payload: %+v", body.Data)
			}
		})
	}
}

func TestRoomHandler_List(t *testing.T) {
	directory := &mockRoomDirectory{rooms: map[string]*model.Room{
		"R1": {ID: "R1", Name: "Sala Azul"},
		"R2": {ID: "R2", Name: "Sala Verde"},
	}}
	router := httprouter.New()
	newTestHandler(directory).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Data []model.Room `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Data) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(body.Data))
	}
}

func TestRoomHandler_ListUnavailable(t *testing.T) {
	h := newTestHandler(&mockRoomDirectory{err: apperrors.Unavailable("Room store", nil)})

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil), nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}
