package client

import (
	"context"
	"roomly/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetRedis connects to Redis. A failed ping is not fatal: callers check
// c.Redis for nil and degrade to in-memory implementations.
func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory fallbacks", "addr", addr, "error", err)
		_ = rdb.Close()
		return
	}

	log.Info("Successfully connected to Redis", "addr", addr)
	c.Redis = rdb
}
