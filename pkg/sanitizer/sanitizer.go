package sanitizer

import (
	"time"

	"roomly/pkg/model"
)

// Room normalizes a catalogue entry in place.
func Room(room *model.Room) {
	if room == nil {
		return
	}
	room.ID = TrimAndNormalize(room.ID)
	room.Name = NormalizeName(room.Name)
	room.Amenities = NormalizeAmenities(room.Amenities)
	room.PhotoURL = SanitizeURL(room.PhotoURL)
}

// ReservationRequest normalizes a booking request in place. Times are
// moved to UTC at millisecond precision, which is what both stores keep.
func ReservationRequest(req *model.ReservationRequest) {
	if req == nil {
		return
	}
	req.RoomID = TrimAndNormalize(req.RoomID)
	req.Title = NormalizeTitle(req.Title)
	req.StartTime = req.StartTime.UTC().Truncate(time.Millisecond)
	req.EndTime = req.EndTime.UTC().Truncate(time.Millisecond)
}

// Requester returns a normalized copy of r.
func Requester(r model.Requester) model.Requester {
	return model.Requester{
		Name:  NormalizeName(r.Name),
		Email: NormalizeEmail(r.Email),
	}
}
