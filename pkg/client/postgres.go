package client

import (
	"roomly/pkg/db/postgres"
	"roomly/pkg/logger"
)

func (c *Client) SetPostgres(log *logger.Logger, dsn string, tracing bool) {
	db, err := postgres.Open(postgres.Options{DSN: dsn, Tracing: tracing})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	log.Info("Successfully connected to PostgreSQL", "xray_tracing", tracing)
	c.Postgres = db
}
