package service

import (
	"context"
	"errors"
	"roomly/internal/rooms/cache"
	roomserrors "roomly/internal/rooms/errors"
	"roomly/internal/rooms/repository"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"strings"
)

// RoomDirectory is the read-only room catalog.
type RoomDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context) ([]*model.Room, error)
}

type roomDirectory struct {
	repo repository.RoomRepository
	log  *logger.Logger
}

func NewRoomDirectory(repo repository.RoomRepository, log *logger.Logger) RoomDirectory {
	return &roomDirectory{
		repo: repo,
		log:  log,
	}
}

// NewCachedRoomDirectory builds the directory over the configured store with
// the room cache in front of it.
func NewCachedRoomDirectory(cfg *config.Config) RoomDirectory {
	repo := cache.NewCachedRoomRepository(repository.NewRoomRepository(cfg), cache.NewRoomCache(cfg))
	return NewRoomDirectory(repo, cfg.Log)
}

func (d *roomDirectory) GetByID(ctx context.Context, id string) (*model.Room, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		d.log.Error("Failed to retrieve room", "id", id, "error", err)
		return nil, mapStoreErr("Failed to retrieve room", err)
	}
	return room, nil
}

func (d *roomDirectory) List(ctx context.Context) ([]*model.Room, error) {
	rooms, err := d.repo.FindAll(ctx)
	if err != nil {
		d.log.Error("Failed to list rooms", "error", err)
		return nil, mapStoreErr("Failed to list rooms", err)
	}
	return rooms, nil
}

func mapStoreErr(message string, err error) error {
	if errors.Is(err, roomserrors.ErrStoreUnavailable) {
		return apperrors.Unavailable("Room store", err)
	}
	return apperrors.Internal(message, err)
}
