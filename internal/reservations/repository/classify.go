package repository

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/pkg/db/postgres"

	"go.mongodb.org/mongo-driver/mongo"
)

func wrapMongoErr(action string, err error) error {
	if isMongoUnavailable(err) {
		return fmt.Errorf("failed to %s: %w: %w", action, reservationserrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func isMongoUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err)
}

func wrapPostgresErr(action string, err error) error {
	if postgres.IsUnavailable(err) {
		return fmt.Errorf("failed to %s: %w: %w", action, reservationserrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
