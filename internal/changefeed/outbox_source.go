package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roomly/internal/reservations/repository"
	"roomly/pkg/db/postgres"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/jmoiron/sqlx"
)

const (
	OutboxTableName = "reservation_events"
	outboxBatchSize = 100
)

type outboxRow struct {
	ID         int64     `db:"id"`
	EventType  string    `db:"event_type"`
	Payload    []byte    `db:"payload"`
	OccurredAt time.Time `db:"occurred_at"`
}

// OutboxSource polls the trigger-maintained outbox table. Each batch is read,
// emitted and deleted inside one transaction; a failed emit rolls the batch
// back so it is delivered again.
type OutboxSource struct {
	db       *sqlx.DB
	interval time.Duration
	log      *logger.Logger
}

func NewOutboxSource(db *sqlx.DB, interval time.Duration, log *logger.Logger) *OutboxSource {
	return &OutboxSource{db: db, interval: interval, log: log}
}

func (s *OutboxSource) Run(ctx context.Context, emit EmitFunc) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		n, err := s.drain(ctx, emit)
		if err != nil {
			return err
		}
		if n == outboxBatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *OutboxSource) drain(ctx context.Context, emit EmitFunc) (int, error) {
	processed := 0
	err := postgres.WithTx(ctx, s.db, nil, func(txCtx context.Context) error {
		exec := postgres.Executor(txCtx, s.db)

		// Only one relay drains at a time, keeping per-reservation order.
		var leader bool
		if err := sqlx.GetContext(txCtx, exec, &leader, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, OutboxTableName); err != nil {
			return fmt.Errorf("acquire outbox lock: %w", err)
		}
		if !leader {
			return nil
		}

		var rows []outboxRow
		query := `SELECT id, event_type, payload, occurred_at FROM ` + OutboxTableName + `
			ORDER BY id LIMIT $1 FOR UPDATE SKIP LOCKED`
		if err := sqlx.SelectContext(txCtx, exec, &rows, query, outboxBatchSize); err != nil {
			return fmt.Errorf("read outbox: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			event, err := decodeOutboxRow(row)
			if err != nil {
				s.log.Error("Dropping malformed outbox row", "outbox_id", row.ID, "error", err)
			} else if err := emit(txCtx, event); err != nil {
				return err
			}
			ids = append(ids, row.ID)
		}

		deleteQuery, args, err := sqlx.In(`DELETE FROM `+OutboxTableName+` WHERE id IN (?)`, ids)
		if err != nil {
			return err
		}
		if _, err := exec.ExecContext(txCtx, exec.Rebind(deleteQuery), args...); err != nil {
			return fmt.Errorf("trim outbox: %w", err)
		}
		processed = len(rows)
		return nil
	})
	return processed, err
}

func decodeOutboxRow(row outboxRow) (model.ReservationEvent, error) {
	eventType := model.ReservationEventType(row.EventType)
	if !eventType.Valid() {
		return model.ReservationEvent{}, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, row.EventType)
	}

	var payload repository.ReservationRow
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return model.ReservationEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if payload.ID == "" {
		return model.ReservationEvent{}, fmt.Errorf("%w: missing reservation id", ErrMalformedEvent)
	}

	return newEvent(eventType, *payload.ToModel(), row.OccurredAt), nil
}
