package model

import "strings"

// Requester is the authenticated identity behind a booking or cancellation.
type Requester struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email" validate:"required,email"`
}

// SameAs compares identities by e-mail, ignoring case and surrounding spaces.
func (r Requester) SameAs(other Requester) bool {
	return strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(other.Email))
}
