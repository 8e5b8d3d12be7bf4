package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	roomserrors "roomly/internal/rooms/errors"
	"roomly/pkg/config"
	"roomly/pkg/db/postgres"
	"roomly/pkg/model"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type roomRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Capacity  sql.NullInt64  `db:"capacity"`
	Amenities pq.StringArray `db:"amenities"`
	PhotoURL  sql.NullString `db:"photo_url"`
}

func (row roomRow) toModel() *model.Room {
	return &model.Room{
		ID:        row.ID,
		Name:      row.Name,
		Capacity:  int(row.Capacity.Int64),
		Amenities: []string(row.Amenities),
		PhotoURL:  row.PhotoURL.String,
	}
}

type postgresRoomRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgresRoomRepository(cfg *config.Config) RoomRepository {
	return &postgresRoomRepository{
		db:      cfg.Client.Postgres,
		timeout: cfg.StoreTimeout,
	}
}

const roomColumns = `id, name, capacity, amenities, photo_url`

func (r *postgresRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row roomRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+roomColumns+` FROM `+TableName+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, wrapPostgresErr("find room", err)
	}
	return row.toModel(), nil
}

func (r *postgresRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []roomRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT `+roomColumns+` FROM `+TableName+` ORDER BY name, id`); err != nil {
		return nil, wrapPostgresErr("list rooms", err)
	}
	rooms := make([]*model.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toModel())
	}
	return rooms, nil
}

func (r *postgresRoomRepository) Upsert(ctx context.Context, room *model.Room) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	capacity := sql.NullInt64{Int64: int64(room.Capacity), Valid: room.Capacity > 0}
	photo := sql.NullString{String: room.PhotoURL, Valid: room.PhotoURL != ""}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+TableName+` (id, name, capacity, amenities, photo_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    capacity = EXCLUDED.capacity,
		    amenities = EXCLUDED.amenities,
		    photo_url = EXCLUDED.photo_url`,
		room.ID, room.Name, capacity, pq.StringArray(room.Amenities), photo,
	)
	if err != nil {
		return wrapPostgresErr("upsert room", err)
	}
	return nil
}

func wrapPostgresErr(op string, err error) error {
	if postgres.IsUnavailable(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, roomserrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
