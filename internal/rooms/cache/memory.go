package cache

import (
	"context"
	"roomly/pkg/model"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// InMemoryRoomCache is used when Redis is not configured.
type InMemoryRoomCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryRoomCache(ttl time.Duration) *InMemoryRoomCache {
	return &InMemoryRoomCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryRoomCache) GetRoom(_ context.Context, id string) (*model.Room, bool) {
	v, ok := c.get("id:" + id)
	if !ok {
		return nil, false
	}
	room := *v.(*model.Room)
	return &room, true
}

func (c *InMemoryRoomCache) SetRoom(_ context.Context, room *model.Room) {
	copied := *room
	c.set("id:"+room.ID, &copied)
}

func (c *InMemoryRoomCache) GetList(_ context.Context) ([]*model.Room, bool) {
	v, ok := c.get(listKey)
	if !ok {
		return nil, false
	}
	return append([]*model.Room(nil), v.([]*model.Room)...), true
}

func (c *InMemoryRoomCache) SetList(_ context.Context, rooms []*model.Room) {
	c.set(listKey, append([]*model.Room(nil), rooms...))
}

func (c *InMemoryRoomCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *InMemoryRoomCache) get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryRoomCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}
