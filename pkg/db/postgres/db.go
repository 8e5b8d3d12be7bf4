package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const driverName = "postgres"

type Options struct {
	DSN     string
	Tracing bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open creates a pooled connection. With Tracing set, the driver is wrapped
// by xray.SQLContext so every statement becomes an X-Ray subsegment.
func Open(opts Options) (*sqlx.DB, error) {
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 25
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 25
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = 5 * time.Minute
	}

	var (
		raw *sql.DB
		err error
	)
	if opts.Tracing {
		raw, err = xray.SQLContext(driverName, opts.DSN)
	} else {
		raw, err = sql.Open(driverName, opts.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db := sqlx.NewDb(raw, driverName)
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}
