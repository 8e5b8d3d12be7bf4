package seed

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"roomly/internal/reservations/validator"
	"roomly/pkg/logger"
	"roomly/pkg/model"
)

type mockRoomWriter struct {
	UpsertFunc func(ctx context.Context, room *model.Room) error
	written    []string
}

func (m *mockRoomWriter) Upsert(ctx context.Context, room *model.Room) error {
	if m.UpsertFunc != nil {
		if err := m.UpsertFunc(ctx, room); err != nil {
			return err
		}
	}
	m.written = append(m.written, room.ID)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func TestDecodeRooms(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"two rooms", `[{"id":"R1","name":"Focus Room","capacity":4,"amenities":["tv"]},{"id":"R2","name":"Board Room"}]`, 2, false},
		{"empty list", `[]`, 0, false},
		{"unknown field", `[{"id":"R1","name":"x","floor":3}]`, 0, true},
		{"not an array", `{"id":"R1"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := DecodeRooms(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRooms() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rooms) != tt.want {
				t.Errorf("rooms = %d, want %d", len(rooms), tt.want)
			}
		})
	}
}

func TestSeedRooms(t *testing.T) {
	v := validator.NewReservationValidator(testLogger())

	tests := []struct {
		name        string
		rooms       []*model.Room
		wantErr     bool
		wantWritten int
	}{
		{
			name:        "valid catalogue",
			rooms:       []*model.Room{{ID: "R1", Name: "Focus Room"}, {ID: "R2", Name: "Board Room", Capacity: 12}},
			wantWritten: 2,
		},
		{
			name:    "missing name writes nothing",
			rooms:   []*model.Room{{ID: "R1", Name: "Focus Room"}, {ID: "R2"}},
			wantErr: true,
		},
		{
			name:    "duplicate id writes nothing",
			rooms:   []*model.Room{{ID: "R1", Name: "A"}, {ID: "R1", Name: "B"}},
			wantErr: true,
		},
		{
			name:    "nil entry",
			rooms:   []*model.Room{nil},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &mockRoomWriter{}
			err := SeedRooms(context.Background(), writer, v, tt.rooms, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("SeedRooms() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(writer.written) != tt.wantWritten {
				t.Errorf("written = %v, want %d rooms", writer.written, tt.wantWritten)
			}
		})
	}
}

func TestSeedRooms_StoreFailure(t *testing.T) {
	writer := &mockRoomWriter{UpsertFunc: func(ctx context.Context, room *model.Room) error {
		return errors.New("connection refused")
	}}

	err := SeedRooms(context.Background(), writer, validator.NewReservationValidator(testLogger()),
		[]*model.Room{{ID: "R1", Name: "Focus Room"}}, testLogger())
	if err == nil || !strings.Contains(err.Error(), "R1") {
		t.Errorf("SeedRooms() error = %v, want failure naming the room", err)
	}
}
