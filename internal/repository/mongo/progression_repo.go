package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const progressionCollectionName = "progression_events"

// mongoProgressionRepository implements repository.ProgressionRepository.
// Events are append-only; the current target of a slot is a fold over its
// events, so there is no update path here at all.
type mongoProgressionRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressionRepository creates a new ProgressionEvent repository.
func NewMongoProgressionRepository(db *mongo.Database) repository.ProgressionRepository {
	return &mongoProgressionRepository{
		collection: db.Collection(progressionCollectionName),
	}
}

// Append inserts a progression event.
func (r *mongoProgressionRepository) Append(ctx context.Context, event *domain.ProgressionEvent) (primitive.ObjectID, error) {
	if event.SlotID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("progression event requires slotId")
	}
	event.ID = primitive.NewObjectID()
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted event ID")
	}
	return insertedID, nil
}

// ListBySlot returns a slot's events in append order.
func (r *mongoProgressionRepository) ListBySlot(ctx context.Context, slotID primitive.ObjectID) ([]domain.ProgressionEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"slotId": slotID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.ProgressionEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EnsureProgressionIndexes creates necessary indexes. Call during startup.
func EnsureProgressionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slotId", Value: 1}, {Key: "at", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.WithError(err).WithField("collection", collection.Name()).
			Warn("failed to create indexes")
	}
}
