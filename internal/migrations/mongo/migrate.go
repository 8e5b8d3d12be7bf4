package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roomly/internal/changefeed"
	"roomly/internal/migrations/mongo/validators"
	reservationsrepo "roomly/internal/reservations/repository"
	roomsrepo "roomly/internal/rooms/repository"
	"roomly/pkg/logger"
)

var (
	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
	}

	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "requester.email", Value: 1},
			{Key: "start_time", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "end_time", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				"external_event_id": bson.M{"$exists": false},
			}),
		},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// RunMigration creates collections, validators and indexes, and turns on
// pre-images for the reservations collection so delete events carry the
// removed document.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	collections := []collectionDef{
		{Name: roomsrepo.CollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: reservationsrepo.CollectionName, Indexes: ReservationsIndexes, Validator: validators.ReservationValidator},
		{Name: reservationsrepo.RoomGuardCollectionName},
		{Name: changefeed.CheckpointCollectionName},
	}

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	enablePreImages(ctx, db, reservationsrepo.CollectionName, log)

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}

// enablePreImages needs MongoDB 6.0+. On older servers delete events arrive
// without the external event id and calendar cleanup is skipped.
func enablePreImages(ctx context.Context, db *mongo.Database, name string, log *logger.Logger) {
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "changeStreamPreAndPostImages", Value: bson.M{"enabled": true}},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Could not enable change stream pre-images", "collection", name, "error", err)
		return
	}
	log.Info("Change stream pre-images enabled", "collection", name)
}
