package repository

import (
	"context"
	"errors"
	"fmt"
	roomserrors "roomly/internal/rooms/errors"
	"roomly/pkg/config"
	"roomly/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRoomRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		collection: db.Collection(CollectionName),
		timeout:    cfg.StoreTimeout,
	}
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, wrapErr("find room", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) FindAll(ctx context.Context) ([]*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("list rooms", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	rooms := make([]*model.Room, 0)
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, wrapErr("decode rooms", err)
	}
	return rooms, nil
}

func (r *mongoRoomRepository) Upsert(ctx context.Context, room *model.Room) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": room.ID}, room, options.Replace().SetUpsert(true))
	if err != nil {
		return wrapErr("upsert room", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, roomserrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
