package validator

import (
	"errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"testing"
	"time"
)

func newTestValidator() *ReservationValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationValidator(log)
}

func TestValidate(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	owner := &model.Requester{Name: "Ana", Email: "ana@example.com"}

	tests := []struct {
		name         string
		req          *model.ReservationRequest
		requester    *model.Requester
		expectFields []string
	}{
		{
			name:      "valid request",
			req:       &model.ReservationRequest{RoomID: "R1", Title: "Standup", StartTime: start, EndTime: start.Add(30 * time.Minute)},
			requester: owner,
		},
		{
			name:         "missing title",
			req:          &model.ReservationRequest{RoomID: "R1", StartTime: start, EndTime: start.Add(time.Hour)},
			requester:    owner,
			expectFields: []string{"title"},
		},
		{
			name:         "blank title",
			req:          &model.ReservationRequest{RoomID: "R1", Title: "   ", StartTime: start, EndTime: start.Add(time.Hour)},
			requester:    owner,
			expectFields: []string{"title"},
		},
		{
			name:         "end equals start",
			req:          &model.ReservationRequest{RoomID: "R1", Title: "Standup", StartTime: start, EndTime: start},
			requester:    owner,
			expectFields: []string{"end_time"},
		},
		{
			name:         "end before start",
			req:          &model.ReservationRequest{RoomID: "R1", Title: "Standup", StartTime: start, EndTime: start.Add(-time.Minute)},
			requester:    owner,
			expectFields: []string{"end_time"},
		},
		{
			name:         "missing requester",
			req:          &model.ReservationRequest{RoomID: "R1", Title: "Standup", StartTime: start, EndTime: start.Add(time.Hour)},
			requester:    nil,
			expectFields: []string{"requester"},
		},
		{
			name:         "requester without email",
			req:          &model.ReservationRequest{RoomID: "R1", Title: "Standup", StartTime: start, EndTime: start.Add(time.Hour)},
			requester:    &model.Requester{Name: "Ana"},
			expectFields: []string{"requester.email"},
		},
		{
			name:         "several problems at once",
			req:          &model.ReservationRequest{StartTime: start, EndTime: start},
			requester:    nil,
			expectFields: []string{"room_id", "title", "end_time", "requester"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req, tt.requester)

			if len(tt.expectFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			details := verrs.Details()
			for _, field := range tt.expectFields {
				if _, ok := details[field]; !ok {
					t.Errorf("expected violation for field %q, got %v", field, details)
				}
			}
		})
	}
}

func TestValidate_GtfieldMessageUsesJSONNames(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	err := v.Validate(&model.ReservationRequest{RoomID: "R1", Title: "x", StartTime: start, EndTime: start}, &model.Requester{Email: "a@b.co"})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got := verrs.Details()["end_time"]; got != "end_time must be after start_time" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestValidateRoom(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name        string
		room        *model.Room
		expectValid bool
	}{
		{"valid room", &model.Room{ID: "R1", Name: "Sala Azul", Capacity: 8, Amenities: []string{"TV"}}, true},
		{"missing name", &model.Room{ID: "R1"}, false},
		{"negative capacity", &model.Room{ID: "R1", Name: "Sala", Capacity: -1}, false},
		{"bad photo url", &model.Room{ID: "R1", Name: "Sala", PhotoURL: "not a url"}, false},
		{"empty amenity", &model.Room{ID: "R1", Name: "Sala", Amenities: []string{""}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRoom(tt.room)
			if tt.expectValid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.expectValid && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestToJSONName(t *testing.T) {
	if got := toJSONName("StartTime"); got != "start_time" {
		t.Errorf("toJSONName(StartTime) = %q", got)
	}
}
