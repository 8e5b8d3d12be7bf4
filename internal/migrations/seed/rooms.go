// Package seed loads the room catalogue from a JSON file into the store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"roomly/internal/reservations/validator"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
)

type RoomWriter interface {
	Upsert(ctx context.Context, room *model.Room) error
}

// LoadRooms reads a JSON array of rooms.
func LoadRooms(path string) ([]*model.Room, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rooms seed file: %w", err)
	}
	defer f.Close()
	return DecodeRooms(f)
}

func DecodeRooms(r io.Reader) ([]*model.Room, error) {
	var rooms []*model.Room
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rooms); err != nil {
		return nil, fmt.Errorf("decode rooms seed: %w", err)
	}
	return rooms, nil
}

// SeedRooms normalizes and validates every room first and writes nothing if any is
// invalid or an id repeats.
func SeedRooms(ctx context.Context, writer RoomWriter, v *validator.ReservationValidator, rooms []*model.Room, log *logger.Logger) error {
	seen := make(map[string]bool, len(rooms))
	var problems []error
	for i, room := range rooms {
		if room == nil {
			problems = append(problems, fmt.Errorf("room %d: empty entry", i))
			continue
		}
		sanitizer.Room(room)
		if err := v.ValidateRoom(room); err != nil {
			problems = append(problems, fmt.Errorf("room %d (%s): %w", i, room.ID, err))
			continue
		}
		if seen[room.ID] {
			problems = append(problems, fmt.Errorf("room %d: duplicate id %s", i, room.ID))
		}
		seen[room.ID] = true
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	for _, room := range rooms {
		if err := writer.Upsert(ctx, room); err != nil {
			return fmt.Errorf("upsert room %s: %w", room.ID, err)
		}
		log.Info("Seeded room", "id", room.ID, "name", room.Name)
	}
	return nil
}
