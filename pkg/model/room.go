package model

// Room is a bookable meeting room. Rooms are maintained by the seed tool and
// are read-only for the reservation service.
type Room struct {
	ID        string   `json:"id" bson:"_id" db:"id" validate:"required,max=64"`
	Name      string   `json:"name" bson:"name" db:"name" validate:"required,min=1,max=120"`
	Capacity  int      `json:"capacity,omitempty" bson:"capacity,omitempty" db:"capacity" validate:"omitempty,min=1"`
	Amenities []string `json:"amenities,omitempty" bson:"amenities,omitempty" db:"-" validate:"omitempty,dive,min=1,max=60"`
	PhotoURL  string   `json:"photo_url,omitempty" bson:"photo_url,omitempty" db:"photo_url" validate:"omitempty,url"`
}
