package calendarsync

import (
	"context"
	"time"

	"roomly/pkg/logger"
)

const reconcileBatchSize = 100

// Reconciler periodically mirrors reservations that still lack an external
// event id, covering events the live consumer failed to sync. Only records
// older than one interval are swept so it does not race the consumer.
type Reconciler struct {
	bridge   *Bridge
	store    ReservationStore
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewReconciler(bridge *Bridge, store ReservationStore, interval time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		bridge:   bridge,
		store:    store,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("Calendar reconciliation started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass and returns how many reservations were
// mirrored.
func (r *Reconciler) Sweep(ctx context.Context) int {
	pending, err := r.store.FindUnsynced(ctx, r.now().UTC().Add(-r.interval), reconcileBatchSize)
	if err != nil {
		r.bridge.logSyncError("find unsynced reservations", "", err)
		return 0
	}

	mirrored := 0
	for _, reservation := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := r.bridge.Mirror(ctx, reservation); err != nil {
			r.bridge.logSyncError("reconcile event", reservation.ID, err)
			continue
		}
		mirrored++
	}

	if len(pending) > 0 {
		r.log.Info("Calendar reconciliation pass finished", "pending", len(pending), "mirrored", mirrored)
	}
	return mirrored
}
