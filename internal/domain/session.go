package domain

import (
	"time"

	"alcyxob/adaptive-fitness/internal/dates"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionType distinguishes scheduled workout days from rest days.
type SessionType string

const (
	SessionTypeWorkout SessionType = "workout"
	SessionTypeRest    SessionType = "rest"
)

// SessionStatus type for the session lifecycle.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusComplete   SessionStatus = "complete"
	StatusSkipped    SessionStatus = "skipped"
	// StatusArchived is applied by the cleanup pass once a session's date is
	// in the past and the session is terminal. Archived sessions are out of
	// scope for reconciliation and uniqueness checks.
	StatusArchived SessionStatus = "archived"
)

// IsTerminal reports whether the status allows no further user action.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusSkipped || s == StatusArchived
}

// WorkoutSession is one concrete, dated occurrence of a program workout or
// rest day on the rolling calendar. At steady state exactly one non-archived
// session exists per (program, scheduledDate) pair; reconciliation preserves
// this.
type WorkoutSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`
	// ProgramWorkoutID is nil for rest days and ad-hoc cardio sessions.
	ProgramWorkoutID *primitive.ObjectID `bson:"programWorkoutId,omitempty" json:"programWorkoutId,omitempty"`
	SessionType      SessionType         `bson:"sessionType" json:"sessionType"`
	// ScheduledDate is the local calendar day (YYYY-MM-DD) this session is
	// planned for. Never a timestamp: missed-workout detection and cycle
	// boundaries are calendar-day granular.
	ScheduledDate string `bson:"scheduledDate" json:"scheduledDate"`
	// SessionDate is the actual completion timestamp; nil until completed.
	SessionDate     *time.Time    `bson:"sessionDate,omitempty" json:"sessionDate,omitempty"`
	Status          SessionStatus `bson:"status" json:"status"`
	Completed       bool          `bson:"completed" json:"completed"`
	DurationMinutes int           `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Calories        int           `bson:"calories,omitempty" json:"calories,omitempty"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Scheduled parses the scheduled calendar day.
func (s *WorkoutSession) Scheduled() dates.LocalDate {
	d, err := dates.Parse(s.ScheduledDate)
	if err != nil {
		return dates.LocalDate{}
	}
	return d
}

// MissedAsOf reports whether this session counts as missed on the given day:
// a workout session whose scheduled date has passed without reaching a
// terminal state. Rest days cannot be missed.
func (s *WorkoutSession) MissedAsOf(today dates.LocalDate) bool {
	if s.SessionType != SessionTypeWorkout {
		return false
	}
	if s.Status.IsTerminal() {
		return false
	}
	return s.Scheduled().Before(today)
}

// SetLogEntry is the in-session record of one logged set. It is not
// persisted as its own entity; it folds into session totals and into
// progression events against the exercise slot.
type SetLogEntry struct {
	SlotID          primitive.ObjectID `json:"slotId"`
	SetNumber       int                `json:"setNumber"`
	ActualReps      int                `json:"actualReps,omitempty"`
	DurationSeconds int                `json:"durationSeconds,omitempty"`
	// ActualWeight is in pounds, like every weight inside the engine.
	ActualWeight float64 `json:"actualWeight,omitempty"`
	// ReportedRIR is the reps-in-reserve the user reported during the rest
	// period after this set; it informs the next set, never this one.
	ReportedRIR *int `json:"reportedRir,omitempty"`
}
