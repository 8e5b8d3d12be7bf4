package cache

import (
	"context"
	"roomly/pkg/config"
	"roomly/pkg/model"
)

const listKey = "all"

// RoomCache stores catalog reads. A miss is reported with ok=false; cache
// errors are never fatal to the caller.
type RoomCache interface {
	GetRoom(ctx context.Context, id string) (*model.Room, bool)
	SetRoom(ctx context.Context, room *model.Room)
	GetList(ctx context.Context) ([]*model.Room, bool)
	SetList(ctx context.Context, rooms []*model.Room)
	Invalidate(ctx context.Context)
}

// NewRoomCache uses Redis when a client is connected and an in-process cache
// otherwise.
func NewRoomCache(cfg *config.Config) RoomCache {
	if cfg.Client != nil && cfg.Client.Redis != nil {
		return NewRedisRoomCache(cfg.Client.Redis, cfg.RoomCacheTTL, cfg.Log)
	}
	return NewInMemoryRoomCache(cfg.RoomCacheTTL)
}
