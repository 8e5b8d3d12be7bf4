package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RoomGuardCollectionName = "Room_guards"

// RoomGuardRepository serializes booking transactions per room. Bumping the
// guard inside a transaction makes two concurrent transactions for the same
// room write the same document, so one of them aborts with a write conflict
// and is retried after the other commits.
type RoomGuardRepository interface {
	Bump(ctx context.Context, roomID string) error
}

type mongoRoomGuardRepository struct {
	collection *mongo.Collection
}

func NewMongoRoomGuardRepository(db *mongo.Database) RoomGuardRepository {
	return &mongoRoomGuardRepository{
		collection: db.Collection(RoomGuardCollectionName),
	}
}

func (r *mongoRoomGuardRepository) Bump(ctx context.Context, roomID string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return wrapMongoErr("bump room guard", err)
	}
	return nil
}
