package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/pkg/config"
	"roomly/pkg/db/postgres"
	"roomly/pkg/model"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReservationRow is the flat relational shape of a reservation. The outbox
// trigger serializes rows with row_to_json, so the json tags match the
// column names.
type ReservationRow struct {
	ID              string    `db:"id" json:"id"`
	RoomID          string    `db:"room_id" json:"room_id"`
	Title           string    `db:"title" json:"title"`
	RequesterName   string    `db:"requester_name" json:"requester_name"`
	RequesterEmail  string    `db:"requester_email" json:"requester_email"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	ExternalEventID *string   `db:"external_event_id" json:"external_event_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

func (row *ReservationRow) ToModel() *model.Reservation {
	reservation := &model.Reservation{
		ID:     row.ID,
		RoomID: row.RoomID,
		Title:  row.Title,
		Requester: model.Requester{
			Name:  row.RequesterName,
			Email: row.RequesterEmail,
		},
		StartTime: row.StartTime.UTC(),
		EndTime:   row.EndTime.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.ExternalEventID != nil {
		reservation.ExternalEventID = *row.ExternalEventID
	}
	return reservation
}

const reservationColumns = `id, room_id, title, requester_name, requester_email, start_time, end_time, external_event_id, created_at`

type postgresReservationRepository struct {
	cfg *config.Config
	db  *sqlx.DB
}

func NewPostgresReservationRepository(cfg *config.Config) ReservationRepository {
	return &postgresReservationRepository{
		cfg: cfg,
		db:  cfg.Client.Postgres,
	}
}

func (r *postgresReservationRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if postgres.InTx(ctx) {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.StoreTimeout)
}

func (r *postgresReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	reservation.ID = uuid.NewString()
	reservation.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query := `INSERT INTO ` + TableName + ` (id, room_id, title, requester_name, requester_email, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := postgres.Executor(ctx, r.db).ExecContext(ctx, query,
		reservation.ID,
		reservation.RoomID,
		reservation.Title,
		reservation.Requester.Name,
		reservation.Requester.Email,
		reservation.StartTime,
		reservation.EndTime,
		reservation.CreatedAt,
	)
	if err != nil {
		reservation.ID = ""
		if postgres.IsExclusionViolation(err) {
			return fmt.Errorf("%w: %w", reservationserrors.ErrTimeConflict, err)
		}
		return wrapPostgresErr("create reservation", err)
	}
	return nil
}

func (r *postgresReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var row ReservationRow
	query := `SELECT ` + reservationColumns + ` FROM ` + TableName + ` WHERE id = $1`
	if err := sqlx.GetContext(ctx, postgres.Executor(ctx, r.db), &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, wrapPostgresErr("find reservation", err)
	}
	return row.ToModel(), nil
}

func (r *postgresReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	result, err := postgres.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM `+TableName+` WHERE id = $1`, id)
	if err != nil {
		return wrapPostgresErr("delete reservation", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapPostgresErr("delete reservation", err)
	}
	if affected == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *postgresReservationRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM ` + TableName + `
		WHERE room_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`
	return r.selectRows(ctx, "find overlapping reservations", query, roomID, start, end)
}

func (r *postgresReservationRepository) FindByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	conditions := []string{"room_id = $1"}
	args := []any{roomID}
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("end_time > $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY start_time, id LIMIT $%d OFFSET $%d`,
		reservationColumns, TableName, strings.Join(conditions, " AND "), len(args)-1, len(args))
	return r.selectRows(ctx, "find room reservations", query, args...)
}

func (r *postgresReservationRepository) FindByRequester(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM ` + TableName + `
		WHERE requester_email = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`
	return r.selectRows(ctx, "find requester reservations", query, strings.ToLower(strings.TrimSpace(email)), limit, offset)
}

func (r *postgresReservationRepository) FindUpcoming(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM ` + TableName + `
		WHERE end_time >= $1
		ORDER BY end_time, start_time
		LIMIT $2 OFFSET $3`
	return r.selectRows(ctx, "find upcoming reservations", query, now, limit, offset)
}

func (r *postgresReservationRepository) FindUnsynced(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM ` + TableName + `
		WHERE (external_event_id IS NULL OR external_event_id = '') AND created_at < $1
		ORDER BY created_at
		LIMIT $2`
	return r.selectRows(ctx, "find unsynced reservations", query, createdBefore, limit)
}

func (r *postgresReservationRepository) SetExternalEventID(ctx context.Context, id string, externalEventID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var synced sql.NullBool
	query := `WITH target AS (SELECT id FROM ` + TableName + ` WHERE id = $1),
		updated AS (
			UPDATE ` + TableName + ` SET external_event_id = $2
			WHERE id = $1 AND (external_event_id IS NULL OR external_event_id = '')
			RETURNING id
		)
		SELECT EXISTS (SELECT 1 FROM updated) FROM target`

	err := postgres.Executor(ctx, r.db).QueryRowxContext(ctx, query, id, externalEventID).Scan(&synced)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reservationserrors.ErrNotFound
		}
		return wrapPostgresErr("set external event id", err)
	}
	if !synced.Bool {
		return reservationserrors.ErrAlreadySynced
	}
	return nil
}

// RunExclusive holds a transaction-scoped advisory lock keyed by the room
// for the duration of fn. The exclusion constraint on the table still
// rejects overlaps written outside this path.
func (r *postgresReservationRepository) RunExclusive(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	err := postgres.WithTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(txCtx context.Context) error {
		if _, err := postgres.Executor(txCtx, r.db).ExecContext(txCtx, `SELECT pg_advisory_xact_lock(hashtext($1))`, roomID); err != nil {
			return wrapPostgresErr("lock room", err)
		}
		return fn(txCtx)
	})
	if err != nil && postgres.IsUnavailable(err) && !errors.Is(err, reservationserrors.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", reservationserrors.ErrStoreUnavailable, err)
	}
	return err
}

func (r *postgresReservationRepository) selectRows(ctx context.Context, action string, query string, args ...any) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []ReservationRow
	if err := sqlx.SelectContext(ctx, postgres.Executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, wrapPostgresErr(action, err)
	}

	reservations := make([]*model.Reservation, 0, len(rows))
	for i := range rows {
		reservations = append(reservations, rows[i].ToModel())
	}
	return reservations, nil
}
