package changefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomly/internal/reservations/repository"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CheckpointCollectionName = "Feed_checkpoints"
	relayCheckpointID        = "reservations-relay"
)

// changeEvent is the subset of a change stream document the relay reads.
type changeEvent struct {
	OperationType            string             `bson:"operationType"`
	FullDocument             *model.Reservation `bson:"fullDocument"`
	FullDocumentBeforeChange *model.Reservation `bson:"fullDocumentBeforeChange"`
	DocumentKey              struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	WallTime time.Time `bson:"wallTime"`
}

type checkpoint struct {
	ID        string    `bson:"_id"`
	Token     bson.Raw  `bson:"token"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoSource tails the Reservations collection with a change stream and
// persists the resume token after every emitted event.
type MongoSource struct {
	collection  *mongo.Collection
	checkpoints *mongo.Collection
	log         *logger.Logger
}

func NewMongoSource(db *mongo.Database, log *logger.Logger) *MongoSource {
	return &MongoSource{
		collection:  db.Collection(repository.CollectionName),
		checkpoints: db.Collection(CheckpointCollectionName),
		log:         log,
	}
}

func (s *MongoSource) Run(ctx context.Context, emit EmitFunc) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "delete"}}}},
		}}},
	}

	opts := options.ChangeStream().SetFullDocumentBeforeChange(options.WhenAvailable)
	token, err := s.loadToken(ctx)
	if err != nil {
		return err
	}
	if token != nil {
		opts.SetResumeAfter(token)
		s.log.Info("Resuming reservation change stream from checkpoint")
	} else {
		s.log.Info("Starting reservation change stream from the current position")
	}

	stream, err := s.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		var change changeEvent
		if err := stream.Decode(&change); err != nil {
			return fmt.Errorf("decode change event: %w", err)
		}

		event, ok := toReservationEvent(change)
		if !ok {
			s.log.Warn("Skipping change event", "operation", change.OperationType, "id", change.DocumentKey.ID.Hex())
		} else {
			if change.OperationType == "delete" && change.FullDocumentBeforeChange == nil {
				s.log.Warn("Delete event has no pre-image, calendar cleanup will be skipped", "id", event.Reservation.ID)
			}
			if err := emit(ctx, event); err != nil {
				return err
			}
		}

		if err := s.saveToken(ctx, stream.ResumeToken()); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("change stream: %w", err)
	}
	return ctx.Err()
}

// toReservationEvent maps a change document to a feed event. Deletes rely
// on the pre-image for the external event id and fall back to the bare id.
func toReservationEvent(change changeEvent) (model.ReservationEvent, bool) {
	switch change.OperationType {
	case "insert":
		if change.FullDocument == nil {
			return model.ReservationEvent{}, false
		}
		reservation := *change.FullDocument
		if reservation.ID == "" {
			reservation.ID = change.DocumentKey.ID.Hex()
		}
		return newEvent(model.ReservationCreated, reservation, change.WallTime), true
	case "delete":
		reservation := model.Reservation{ID: change.DocumentKey.ID.Hex()}
		if change.FullDocumentBeforeChange != nil {
			reservation = *change.FullDocumentBeforeChange
			reservation.ID = change.DocumentKey.ID.Hex()
		}
		return newEvent(model.ReservationDeleted, reservation, change.WallTime), true
	default:
		return model.ReservationEvent{}, false
	}
}

func (s *MongoSource) loadToken(ctx context.Context) (bson.Raw, error) {
	var cp checkpoint
	err := s.checkpoints.FindOne(ctx, bson.M{"_id": relayCheckpointID}).Decode(&cp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load change stream checkpoint: %w", err)
	}
	return cp.Token, nil
}

func (s *MongoSource) saveToken(ctx context.Context, token bson.Raw) error {
	if token == nil {
		return nil
	}
	_, err := s.checkpoints.ReplaceOne(ctx,
		bson.M{"_id": relayCheckpointID},
		checkpoint{ID: relayCheckpointID, Token: token, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save change stream checkpoint: %w", err)
	}
	return nil
}
