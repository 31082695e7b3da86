package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressionField names the exercise-slot target a progression event moved.
type ProgressionField string

const (
	ProgressionWeight ProgressionField = "weight"
	ProgressionReps   ProgressionField = "reps"
)

// ProgressionReason records which rule produced a recommendation.
type ProgressionReason string

const (
	ReasonRepsBelowRange ProgressionReason = "reps_below_range"
	ReasonRepsAboveRange ProgressionReason = "reps_above_range"
	ReasonHighRIR        ProgressionReason = "high_rir"
)

// ProgressionEvent is one recorded change to an exercise slot's target,
// appended when a logged set triggers the progression rules. The slot's
// current target is derived by folding its events over the generated
// baseline, so an offline retry or a concurrent session cannot silently
// clobber an update.
type ProgressionEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`
	SlotID    primitive.ObjectID `bson:"slotId" json:"slotId"`
	Field     ProgressionField   `bson:"field" json:"field"`
	// Weight values are pounds. For rep events Old/New carry the rep-range
	// minimum; the maximum moves in lockstep.
	OldValue float64           `bson:"oldValue" json:"oldValue"`
	NewValue float64           `bson:"newValue" json:"newValue"`
	Reason   ProgressionReason `bson:"reason" json:"reason"`
	At       time.Time         `bson:"at" json:"at"`
}
