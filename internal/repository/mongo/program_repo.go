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

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository.
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program with its embedded workouts, assigning IDs to
// every embedded workout and exercise slot that lacks one.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.UserID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires userId and name")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	for wi := range program.Workouts {
		if program.Workouts[wi].ID == primitive.NilObjectID {
			program.Workouts[wi].ID = primitive.NewObjectID()
		}
		for ei := range program.Workouts[wi].Exercises {
			if program.Workouts[wi].Exercises[ei].ID == primitive.NilObjectID {
				program.Workouts[wi].Exercises[ei].ID = primitive.NewObjectID()
			}
		}
	}

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single program.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// GetActiveByUserID retrieves the user's single active program.
func (r *mongoProgramRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	filter := bson.M{"userId": userID, "isActive": true}
	err := r.collection.FindOne(ctx, filter).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// ListActive returns every user's active program.
func (r *mongoProgramRepository) ListActive(ctx context.Context) ([]domain.Program, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var programs []domain.Program
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// SetActive flips the active flag: the given program becomes active, every
// other program of the user is deactivated first.
func (r *mongoProgramRepository) SetActive(ctx context.Context, userID, programID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": programID, "userId": userID},
		bson.M{"$set": bson.M{"isActive": true, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAnchor moves the cycle anchor date.
func (r *mongoProgramRepository) UpdateAnchor(ctx context.Context, programID primitive.ObjectID, anchorDate string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": programID},
		bson.M{"$set": bson.M{"anchorDate": anchorDate, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetPromptedCycle records the cycle number the completion prompt was last
// shown for. $max keeps the field monotonic even under a replayed write.
func (r *mongoProgramRepository) SetPromptedCycle(ctx context.Context, programID primitive.ObjectID, cycle int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": programID},
		bson.M{
			"$max": bson.M{"promptedCycle": cycle},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateExerciseTarget writes current recommended targets onto one embedded
// exercise slot using array filters, so concurrent updates to other slots
// never conflict.
func (r *mongoProgramRepository) UpdateExerciseTarget(ctx context.Context, programID, slotID primitive.ObjectID, weight *float64, repsMin, repsMax int) error {
	updateDoc := bson.M{
		"$set": bson.M{
			"workouts.$[].exercises.$[slot].recommendedWeight": weight,
			"workouts.$[].exercises.$[slot].repsMin":           repsMin,
			"workouts.$[].exercises.$[slot].repsMax":           repsMax,
			"updatedAt": time.Now().UTC(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: bson.A{bson.M{"slot._id": slotID}},
	})
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": programID}, updateDoc, arrayFilters)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.WithError(err).WithField("collection", collection.Name()).
			Warn("failed to create indexes")
	}
}
