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

const sessionCollectionName = "workout_sessions"

// nonTerminalStatuses is the filter guard for conditional reschedule/skip
// writes: a session that turned terminal since the reconciliation scan began
// must not be touched.
var nonTerminalStatuses = bson.A{domain.StatusInProgress}

// mongoSessionRepository implements repository.SessionRepository.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new WorkoutSession repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a single session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID || session.ScheduledDate == "" {
		return primitive.NilObjectID, errors.New("session requires userId and scheduledDate")
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// CreateMany inserts a whole cycle of sessions at once.
func (r *mongoSessionRepository) CreateMany(ctx context.Context, sessions []domain.WorkoutSession) error {
	if len(sessions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(sessions))
	for i := range sessions {
		if sessions[i].ID == primitive.NilObjectID {
			sessions[i].ID = primitive.NewObjectID()
		}
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
		docs[i] = sessions[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByProgramID retrieves all non-archived sessions of a program, ordered
// by scheduled date.
func (r *mongoSessionRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	filter := bson.M{
		"programId": programID,
		"status":    bson.M{"$ne": domain.StatusArchived},
	}
	return r.find(ctx, filter)
}

// GetByProgramAndDateRange retrieves ALL sessions, archived history
// included, scheduled in [from, to]. Dates are YYYY-MM-DD strings so string
// comparison matches calendar comparison. Cycle evaluation depends on the
// archived ones: they prove the early days of a window were resolved.
func (r *mongoSessionRepository) GetByProgramAndDateRange(ctx context.Context, programID primitive.ObjectID, from, to string) ([]domain.WorkoutSession, error) {
	filter := bson.M{
		"programId":     programID,
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	}
	return r.find(ctx, filter)
}

func (r *mongoSessionRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update rewrites the mutable fields of a session.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":          session.Status,
			"completed":       session.Completed,
			"sessionDate":     session.SessionDate,
			"durationMinutes": session.DurationMinutes,
			"calories":        session.Calories,
			"notes":           session.Notes,
			"scheduledDate":   session.ScheduledDate,
			"updatedAt":       time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RescheduleIfActive moves a session onto a new date, guarded so a session
// that reached a terminal state since the caller's scan is left untouched.
func (r *mongoSessionRepository) RescheduleIfActive(ctx context.Context, id primitive.ObjectID, newDate string) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": nonTerminalStatuses},
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"scheduledDate": newDate,
			"updatedAt":     time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// MarkSkippedIfActive marks a session skipped with the same terminal-state
// guard as RescheduleIfActive.
func (r *mongoSessionRepository) MarkSkippedIfActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": nonTerminalStatuses},
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":    domain.StatusSkipped,
			"completed": false,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// Archive transitions a session to archived.
func (r *mongoSessionRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	updateDoc := bson.M{
		"$set": bson.M{
			"status":    domain.StatusArchived,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Reconciliation and cycle evaluation always read by program and
			// date. The one-non-archived-session-per-(program, date)
			// invariant is enforced at the service layer; archived history
			// legitimately reuses dates.
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.WithError(err).WithField("collection", collection.Name()).
			Warn("failed to create indexes")
	}
}
