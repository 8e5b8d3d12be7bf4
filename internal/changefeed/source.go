package changefeed

import (
	"context"

	"roomly/pkg/model"
)

// EmitFunc receives feed events in commit order. Returning an error stops
// the source without advancing its checkpoint, so the event is re-read on
// the next run.
type EmitFunc func(ctx context.Context, event model.ReservationEvent) error

// Source tails the reservation store's change feed.
type Source interface {
	Run(ctx context.Context, emit EmitFunc) error
}
