package repository

import (
	"context"

	"alcyxob/adaptive-fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Program, error)
	// ListActive returns every user's active program; the nightly sweep
	// iterates them.
	ListActive(ctx context.Context) ([]domain.Program, error)
	// SetActive activates the given program and deactivates every other
	// program of the same user.
	SetActive(ctx context.Context, userID, programID primitive.ObjectID) error
	// UpdateAnchor moves the cycle anchor date (YYYY-MM-DD).
	UpdateAnchor(ctx context.Context, programID primitive.ObjectID, anchorDate string) error
	// SetPromptedCycle records that the cycle-complete prompt was shown for
	// the given cycle number.
	SetPromptedCycle(ctx context.Context, programID primitive.ObjectID, cycle int) error
	// UpdateExerciseTarget writes the slot's current recommended targets back
	// onto the embedded ProgramExercise document.
	UpdateExerciseTarget(ctx context.Context, programID, slotID primitive.ObjectID, weight *float64, repsMin, repsMax int) error
}

// SessionRepository defines the interface for interacting with workout
// session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	// CreateMany inserts a batch of sessions. Callers validate the whole
	// batch before calling, so a failed insert never follows a successful
	// partial schedule.
	CreateMany(ctx context.Context, sessions []domain.WorkoutSession) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	// GetByProgramID returns all non-archived sessions of a program ordered
	// by scheduled date.
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// GetByProgramAndDateRange returns all sessions, archived included,
	// scheduled in [from, to], ordered by scheduled date. Dates are
	// YYYY-MM-DD strings; lexicographic order matches calendar order.
	GetByProgramAndDateRange(ctx context.Context, programID primitive.ObjectID, from, to string) ([]domain.WorkoutSession, error)
	Update(ctx context.Context, session *domain.WorkoutSession) error
	// RescheduleIfActive moves a session to a new date only if it is still
	// non-terminal, reporting whether the write matched. A session completed
	// concurrently with a reconciliation pass is left untouched.
	RescheduleIfActive(ctx context.Context, id primitive.ObjectID, newDate string) (bool, error)
	// MarkSkippedIfActive marks a session skipped only if still non-terminal.
	MarkSkippedIfActive(ctx context.Context, id primitive.ObjectID) (bool, error)
	// Archive transitions a terminal session to archived.
	Archive(ctx context.Context, id primitive.ObjectID) error
}

// ProfileRepository defines the interface for interacting with user
// profile data.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	Upsert(ctx context.Context, profile *domain.UserProfile) error
	// CloseCycle bumps cycleNumber by one and adds the closed cycle's
	// non-rest completions to the lifetime total.
	CloseCycle(ctx context.Context, userID primitive.ObjectID, workoutsCompleted int) error
}

// ProgressionRepository appends and reads progression events per exercise
// slot.
type ProgressionRepository interface {
	Append(ctx context.Context, event *domain.ProgressionEvent) (primitive.ObjectID, error)
	// ListBySlot returns a slot's events in append order.
	ListBySlot(ctx context.Context, slotID primitive.ObjectID) ([]domain.ProgressionEvent, error)
}
