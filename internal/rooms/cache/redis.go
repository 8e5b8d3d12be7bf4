package cache

import (
	"context"
	"encoding/json"
	"errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "roomly:rooms:"

type redisRoomCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisRoomCache(client *redis.Client, ttl time.Duration, log *logger.Logger) RoomCache {
	return &redisRoomCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *redisRoomCache) GetRoom(ctx context.Context, id string) (*model.Room, bool) {
	var room model.Room
	if !c.get(ctx, keyPrefix+"id:"+id, &room) {
		return nil, false
	}
	return &room, true
}

func (c *redisRoomCache) SetRoom(ctx context.Context, room *model.Room) {
	c.set(ctx, keyPrefix+"id:"+room.ID, room)
}

func (c *redisRoomCache) GetList(ctx context.Context) ([]*model.Room, bool) {
	var rooms []*model.Room
	if !c.get(ctx, keyPrefix+listKey, &rooms) {
		return nil, false
	}
	return rooms, true
}

func (c *redisRoomCache) SetList(ctx context.Context, rooms []*model.Room) {
	c.set(ctx, keyPrefix+listKey, rooms)
}

func (c *redisRoomCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Room cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Room cache invalidation failed", "error", err)
	}
}

func (c *redisRoomCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Room cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("Room cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *redisRoomCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Failed to encode room cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Room cache write failed", "key", key, "error", err)
	}
}
