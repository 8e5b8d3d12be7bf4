package sanitizer

import (
	"reflect"
	"testing"
	"time"

	"roomly/pkg/model"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Board Room  ", want: "Board Room"},
		{name: "multiple spaces between words", input: "Board    Room", want: "Board Room"},
		{name: "tabs and newlines", input: "Board\t\nRoom", want: "Board Room"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Café & Lounge™ ", want: "Café & Lounge™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := TrimAndNormalize(got); again != got {
				t.Errorf("not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestNormalizeAmenities(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "lowercase", input: []string{"Projector", "WHITEBOARD"}, want: []string{"projector", "whiteboard"}},
		{name: "collapse inner whitespace", input: []string{"video   call"}, want: []string{"video call"}},
		{name: "remove duplicates", input: []string{"Projector", " projector ", "PROJECTOR"}, want: []string{"projector"}},
		{name: "filter empty strings", input: []string{"tv", "", "  "}, want: []string{"tv"}},
		{name: "nil input", input: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmenities(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeAmenities(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "  ", want: ""},
		{name: "adds scheme", input: "example.com/rooms/a.png", want: "https://example.com/rooms/a.png"},
		{name: "upgrades http", input: "http://Example.com/A.png", want: "https://example.com/A.png"},
		{name: "strips www and trailing slash", input: "https://www.example.com/photos/", want: "https://example.com/photos"},
		{name: "drops tracking parameters", input: "https://example.com/a.png?utm_source=mail&size=large", want: "https://example.com/a.png?size=large"},
		{name: "no host", input: "https://", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.input); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoom(t *testing.T) {
	room := &model.Room{
		ID:        " board-1 ",
		Name:      "  Board   Room ",
		Amenities: []string{"Projector", "projector", " TV "},
		PhotoURL:  "www.example.com/board.jpg",
	}
	Room(room)

	want := &model.Room{
		ID:        "board-1",
		Name:      "Board Room",
		Amenities: []string{"projector", "tv"},
		PhotoURL:  "https://example.com/board.jpg",
	}
	if !reflect.DeepEqual(room, want) {
		t.Errorf("Room() = %+v, want %+v", room, want)
	}

	Room(nil)
}

func TestReservationRequest(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	req := &model.ReservationRequest{
		RoomID:    " board-1 ",
		Title:     " Weekly   sync ",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 123456789, loc),
		EndTime:   time.Date(2026, 3, 2, 10, 0, 0, 0, loc),
	}
	ReservationRequest(req)

	if req.RoomID != "board-1" || req.Title != "Weekly sync" {
		t.Errorf("strings not normalized: %+v", req)
	}
	wantStart := time.Date(2026, 3, 2, 12, 0, 0, 123000000, time.UTC)
	if !req.StartTime.Equal(wantStart) || req.StartTime.Location() != time.UTC {
		t.Errorf("StartTime = %v, want %v", req.StartTime, wantStart)
	}
}

func TestRequester(t *testing.T) {
	got := Requester(model.Requester{Name: " Ana  Souza ", Email: " Ana@Example.COM "})
	want := model.Requester{Name: "Ana Souza", Email: "ana@example.com"}
	if got != want {
		t.Errorf("Requester() = %+v, want %+v", got, want)
	}
}
