package errors

import "errors"

var (
	ErrNotFound = errors.New("room not found")

	ErrStoreUnavailable = errors.New("room store unavailable")
)
