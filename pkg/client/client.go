package client

import (
	"context"
	"errors"
	"roomly/pkg/logger"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client holds the process-wide connections. Only the ones a process
// actually configures are non-nil.
type Client struct {
	Mongo    *mongo.Client
	Postgres *sqlx.DB
	Redis    *redis.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown(log *logger.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		} else {
			log.Info("Disconnected from MongoDB")
		}
	}

	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			log.Error("Failed to close PostgreSQL pool", "error", err)
		} else {
			log.Info("Closed PostgreSQL pool")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		} else {
			log.Info("Closed Redis client")
		}
	}
}

// PingStore checks whichever reservation store connection is configured.
func (c *Client) PingStore(ctx context.Context) error {
	switch {
	case c.Postgres != nil:
		return c.Postgres.PingContext(ctx)
	case c.Mongo != nil:
		return c.Mongo.Ping(ctx, readpref.Primary())
	default:
		return errors.New("no store connection configured")
	}
}
