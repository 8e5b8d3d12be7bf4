package repository

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/model"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	guards     RoomGuardRepository
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		guards:     NewMongoRoomGuardRepository(db),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics. The transaction itself is bounded by RunExclusive.
func (r *mongoReservationRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.StoreTimeout)
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	reservation.ID = ""
	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return wrapMongoErr("create reservation", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, wrapMongoErr("find reservation", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return wrapMongoErr("delete reservation", err)
	}

	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.Reservation, error) {
	filter := bson.M{
		"room_id":    roomID,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	return r.find(ctx, "find overlapping reservations", filter, opts)
}

func (r *mongoReservationRepository) FindByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	filter := bson.M{"room_id": roomID}
	if from != nil {
		filter["end_time"] = bson.M{"$gt": *from}
	}
	if to != nil {
		filter["start_time"] = bson.M{"$lt": *to}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, "find room reservations", filter, opts)
}

func (r *mongoReservationRepository) FindByRequester(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	filter := bson.M{"requester.email": strings.ToLower(strings.TrimSpace(email))}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, "find requester reservations", filter, opts)
}

func (r *mongoReservationRepository) FindUpcoming(ctx context.Context, now time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	filter := bson.M{"end_time": bson.M{"$gte": now}}

	opts := options.Find().
		SetSort(bson.D{{Key: "end_time", Value: 1}, {Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.find(ctx, "find upcoming reservations", filter, opts)
}

func (r *mongoReservationRepository) FindUnsynced(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Reservation, error) {
	filter := bson.M{
		"external_event_id": bson.M{"$in": bson.A{nil, ""}},
		"created_at":        bson.M{"$lt": createdBefore},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, "find unsynced reservations", filter, opts)
}

func (r *mongoReservationRepository) SetExternalEventID(ctx context.Context, id string, externalEventID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":               objectID,
		"external_event_id": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{"external_event_id": externalEventID}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapMongoErr("set external event id", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return wrapMongoErr("check reservation existence", err)
	}
	if count == 0 {
		return reservationserrors.ErrNotFound
	}
	return reservationserrors.ErrAlreadySynced
}

func (r *mongoReservationRepository) RunExclusive(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := r.guards.Bump(sessCtx, roomID); err != nil {
			return err
		}
		return fn(sessCtx)
	})
	if err != nil && isMongoUnavailable(err) && !errors.Is(err, reservationserrors.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", reservationserrors.ErrStoreUnavailable, err)
	}
	return err
}

func (r *mongoReservationRepository) find(ctx context.Context, action string, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapMongoErr(action, err)
	}
	defer cursor.Close(ctx)

	reservations := make([]*model.Reservation, 0)
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, wrapMongoErr("decode reservations", err)
	}

	return reservations, nil
}
