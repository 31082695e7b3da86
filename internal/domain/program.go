package domain

import (
	"time"

	"alcyxob/adaptive-fitness/internal/dates"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Equipment kind for an exercise slot. Drives which progression algorithm
// applies: weighted slots move load, bodyweight slots move the rep range.
type Equipment string

const (
	EquipmentWeighted   Equipment = "weighted"
	EquipmentBodyweight Equipment = "bodyweight"
)

// Program is a generated multi-week workout program owned by one user.
// The workout templates inside it are immutable after generation; only the
// per-slot recommended targets move (via progression events).
type Program struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Name          string             `bson:"name" json:"name"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	// AnchorDate is the first day of the current 7-day cycle, stored as
	// YYYY-MM-DD. Cycle boundaries are always 7 consecutive calendar days
	// from this anchor.
	AnchorDate string `bson:"anchorDate" json:"anchorDate"`
	// PromptedCycle records the last cycle number for which the
	// cycle-complete prompt was surfaced, so the prompt fires exactly once
	// per closed cycle rather than on every poll.
	PromptedCycle int              `bson:"promptedCycle" json:"promptedCycle"`
	IsActive      bool             `bson:"isActive" json:"isActive"`
	Workouts      []ProgramWorkout `bson:"workouts" json:"workouts"`
	CreatedAt     time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// Anchor parses the cycle anchor date. Returns the zero LocalDate when unset.
func (p *Program) Anchor() dates.LocalDate {
	d, err := dates.Parse(p.AnchorDate)
	if err != nil {
		return dates.LocalDate{}
	}
	return d
}

// ProgramWorkout is one workout template within a program.
// Immutable after generation.
type ProgramWorkout struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// DayOfWeek is the ordinal weekday 1 (Mon) - 7 (Sun) the generator
	// intended this workout for. Scheduling may land it elsewhere.
	DayOfWeek int    `bson:"dayOfWeek" json:"dayOfWeek"`
	Name      string `bson:"name" json:"name"`
	// MovementPatterns tags the workout (e.g. "push", "pull", "legs") so
	// rescheduling can be checked to preserve cycle coverage.
	MovementPatterns []string          `bson:"movementPatterns,omitempty" json:"movementPatterns,omitempty"`
	Exercises        []ProgramExercise `bson:"exercises" json:"exercises"`
}

// ProgramExercise is one exercise slot within a ProgramWorkout.
// RecommendedWeight / RepsMin / RepsMax are the only mutable fields; the
// progression engine rewrites them as sets are logged.
type ProgramExercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseName string             `bson:"exerciseName" json:"exerciseName"`
	Equipment    Equipment          `bson:"equipment" json:"equipment"`
	TargetSets   int                `bson:"targetSets" json:"targetSets"`

	// Rep-range target for rep-based slots.
	RepsMin int `bson:"repsMin,omitempty" json:"repsMin,omitempty"`
	RepsMax int `bson:"repsMax,omitempty" json:"repsMax,omitempty"`
	// DurationSeconds marks a duration-based slot (e.g. plank) instead of a
	// rep range.
	DurationSeconds int `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`

	// RecommendedWeight is kept in pounds regardless of the user's display
	// unit; conversion happens at the API boundary only. Nil means no load
	// recommendation yet.
	RecommendedWeight *float64 `bson:"recommendedWeight,omitempty" json:"recommendedWeight,omitempty"`
	TargetRIR         int      `bson:"targetRir" json:"targetRir"`

	// Superset pairing: both members share SupersetGroup, with
	// SupersetOrder 1 and 2. The pair executes as an inseparable A->B unit
	// per set with no rest in between.
	SupersetGroup *int `bson:"supersetGroup,omitempty" json:"supersetGroup,omitempty"`
	SupersetOrder int  `bson:"supersetOrder,omitempty" json:"supersetOrder,omitempty"`

	// WorkSeconds present marks an interval (HIIT) block driven by a fixed
	// work/rest timer for TargetSets rounds, with no manual rep/weight entry.
	WorkSeconds int `bson:"workSeconds,omitempty" json:"workSeconds,omitempty"`
	RestSeconds int `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
}

// IsInterval reports whether this slot is a timer-driven HIIT block.
func (e *ProgramExercise) IsInterval() bool {
	return e.WorkSeconds > 0
}

// IsDurationBased reports whether the slot logs a duration instead of reps.
func (e *ProgramExercise) IsDurationBased() bool {
	return e.DurationSeconds > 0 && !e.IsInterval()
}

// InSuperset reports whether the slot belongs to a superset pair.
func (e *ProgramExercise) InSuperset() bool {
	return e.SupersetGroup != nil
}
