package repository

import (
	"context"
	"roomly/pkg/config"
	"roomly/pkg/model"
)

const (
	CollectionName = "Rooms"
	TableName      = "rooms"
)

// RoomRepository reads the room catalog. Upsert is only used by the seed
// tool; the reservation service treats rooms as read-only.
type RoomRepository interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindAll(ctx context.Context) ([]*model.Room, error)
	Upsert(ctx context.Context, room *model.Room) error
}

// NewRoomRepository returns the repository for the configured store backend.
func NewRoomRepository(cfg *config.Config) RoomRepository {
	if cfg.StoreBackend == config.StorePostgres {
		return NewPostgresRoomRepository(cfg)
	}
	return NewMongoRoomRepository(cfg)
}
