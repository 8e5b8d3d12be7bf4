package cache

import (
	"context"
	"roomly/internal/rooms/repository"
	"roomly/pkg/model"
)

type cachedRoomRepository struct {
	repository.RoomRepository
	cache RoomCache
}

// NewCachedRoomRepository serves catalog reads from cache, falling through
// to repo on a miss. Writes go to repo and clear the cache.
func NewCachedRoomRepository(repo repository.RoomRepository, cache RoomCache) repository.RoomRepository {
	return &cachedRoomRepository{
		RoomRepository: repo,
		cache:          cache,
	}
}

func (r *cachedRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if room, ok := r.cache.GetRoom(ctx, id); ok {
		return room, nil
	}
	room, err := r.RoomRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetRoom(ctx, room)
	return room, nil
}

func (r *cachedRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	if rooms, ok := r.cache.GetList(ctx); ok {
		return rooms, nil
	}
	rooms, err := r.RoomRepository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetList(ctx, rooms)
	return rooms, nil
}

func (r *cachedRoomRepository) Upsert(ctx context.Context, room *model.Room) error {
	if err := r.RoomRepository.Upsert(ctx, room); err != nil {
		return err
	}
	r.cache.Invalidate(ctx)
	return nil
}
