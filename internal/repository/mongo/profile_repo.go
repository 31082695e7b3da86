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

const profileCollectionName = "user_profiles"

// mongoProfileRepository implements repository.ProfileRepository.
type mongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new UserProfile repository.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		collection: db.Collection(profileCollectionName),
	}
}

// GetByUserID retrieves the profile for a user.
func (r *mongoProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert writes the profile's settings, creating the document on first use.
// Lifetime counters are intentionally excluded; they only move via
// CloseCycle so a settings save can never roll them back.
func (r *mongoProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	if profile.UserID == primitive.NilObjectID {
		return errors.New("profile requires userId")
	}
	now := time.Now().UTC()
	updateDoc := bson.M{
		"$set": bson.M{
			"weightKg":     profile.WeightKg,
			"unit":         profile.Unit,
			"equipment":    profile.Equipment,
			"daysPerWeek":  profile.DaysPerWeek,
			"selectedDays": profile.SelectedDays,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"userId":                 profile.UserID,
			"cycleNumber":            1,
			"totalWorkoutsCompleted": 0,
			"createdAt":              now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": profile.UserID}, updateDoc, opts)
	return err
}

// CloseCycle atomically bumps the cycle counter and the lifetime workout
// total. cycleNumber only ever increases.
func (r *mongoProfileRepository) CloseCycle(ctx context.Context, userID primitive.ObjectID, workoutsCompleted int) error {
	if workoutsCompleted < 0 {
		workoutsCompleted = 0
	}
	updateDoc := bson.M{
		"$inc": bson.M{
			"cycleNumber":            1,
			"totalWorkoutsCompleted": workoutsCompleted,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProfileIndexes creates necessary indexes. Call during startup.
func EnsureProfileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.WithError(err).WithField("collection", collection.Name()).
			Warn("failed to create indexes")
	}
}
