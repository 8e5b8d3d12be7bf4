package postgres

import (
	"context"
	"fmt"

	"roomly/internal/changefeed"
	reservationsrepo "roomly/internal/reservations/repository"
	roomsrepo "roomly/internal/rooms/repository"
	pgdb "roomly/pkg/db/postgres"
	"roomly/pkg/logger"

	"github.com/jmoiron/sqlx"
)

type step struct {
	Name string
	SQL  string
}

// Steps are idempotent and run in order inside one transaction.
var Steps = []step{
	{
		Name: "btree_gist extension",
		SQL:  `CREATE EXTENSION IF NOT EXISTS btree_gist`,
	},
	{
		Name: "rooms table",
		SQL: `CREATE TABLE IF NOT EXISTS ` + roomsrepo.TableName + ` (
			id        TEXT PRIMARY KEY CHECK (length(id) BETWEEN 1 AND 64),
			name      TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 120),
			capacity  INTEGER CHECK (capacity IS NULL OR capacity > 0),
			amenities TEXT[],
			photo_url TEXT
		)`,
	},
	{
		Name: "reservations table",
		SQL: `CREATE TABLE IF NOT EXISTS ` + reservationsrepo.TableName + ` (
			id                UUID PRIMARY KEY,
			room_id           TEXT NOT NULL REFERENCES ` + roomsrepo.TableName + ` (id),
			title             TEXT NOT NULL CHECK (length(title) BETWEEN 1 AND 200),
			requester_name    TEXT NOT NULL DEFAULT '',
			requester_email   TEXT NOT NULL,
			start_time        TIMESTAMPTZ NOT NULL,
			end_time          TIMESTAMPTZ NOT NULL,
			external_event_id TEXT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT reservations_time_range CHECK (start_time < end_time),
			CONSTRAINT reservations_no_overlap EXCLUDE USING gist (
				room_id WITH =,
				tstzrange(start_time, end_time, '[)') WITH &&
			)
		)`,
	},
	{
		Name: "reservations indexes",
		SQL: `CREATE INDEX IF NOT EXISTS reservations_requester_idx ON ` + reservationsrepo.TableName + ` (requester_email, start_time DESC);
			CREATE INDEX IF NOT EXISTS reservations_upcoming_idx ON ` + reservationsrepo.TableName + ` (end_time, start_time);
			CREATE INDEX IF NOT EXISTS reservations_unsynced_idx ON ` + reservationsrepo.TableName + ` (created_at) WHERE external_event_id IS NULL`,
	},
	{
		Name: "outbox table",
		SQL: `CREATE TABLE IF NOT EXISTS ` + changefeed.OutboxTableName + ` (
			id             BIGSERIAL PRIMARY KEY,
			event_type     TEXT NOT NULL,
			reservation_id UUID NOT NULL,
			payload        JSONB NOT NULL,
			occurred_at    TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)`,
	},
	{
		Name: "outbox trigger function",
		SQL: `CREATE OR REPLACE FUNCTION reservations_outbox() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'INSERT' THEN
				INSERT INTO ` + changefeed.OutboxTableName + ` (event_type, reservation_id, payload)
				VALUES ('reservation.created', NEW.id, row_to_json(NEW)::jsonb);
				RETURN NEW;
			END IF;
			INSERT INTO ` + changefeed.OutboxTableName + ` (event_type, reservation_id, payload)
			VALUES ('reservation.deleted', OLD.id, row_to_json(OLD)::jsonb);
			RETURN OLD;
		END;
		$$ LANGUAGE plpgsql`,
	},
	{
		Name: "outbox trigger",
		SQL: `DROP TRIGGER IF EXISTS reservations_outbox_trigger ON ` + reservationsrepo.TableName + `;
			CREATE TRIGGER reservations_outbox_trigger
			AFTER INSERT OR DELETE ON ` + reservationsrepo.TableName + `
			FOR EACH ROW EXECUTE FUNCTION reservations_outbox()`,
	},
}

func RunMigration(ctx context.Context, db *sqlx.DB, log *logger.Logger) error {
	log.Info("Running Postgres migrations", "steps", len(Steps))

	err := pgdb.WithTx(ctx, db, nil, func(txCtx context.Context) error {
		exec := pgdb.Executor(txCtx, db)
		for _, s := range Steps {
			if _, err := exec.ExecContext(txCtx, s.SQL); err != nil {
				return fmt.Errorf("step %q: %w", s.Name, err)
			}
			log.Info("Applied migration step", "step", s.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("All Postgres migrations applied")
	return nil
}
