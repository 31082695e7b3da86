// Package progression implements the RIR-driven progressive-overload rules:
// after a set is logged, it decides whether the exercise slot's recommended
// weight or rep range should move for FUTURE sets, and records the change as
// an appended event rather than a blind overwrite.
package progression

import (
	"math"
	"time"

	"alcyxob/adaptive-fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thresholds and bands are empirically chosen training heuristics carried
// over verbatim; do not "improve" them.
const (
	// RIR above this (reported during the prior set's rest) means the load
	// was too easy even when reps landed in range.
	rirIncreaseThreshold = 2
	// RIR at or above this doubles the weight increment.
	rirBigIncreaseThreshold = 5
	// Rep deficit at or below this gets the small reduction; beyond it the
	// big one. A 2-rep miss already takes the full 10% cut.
	smallDeficitMax = 1

	smallReductionPct = 0.05
	bigReductionPct   = 0.10

	weightIncrement    = 5.0
	bigWeightIncrement = 10.0
)

// Recommendation is a proposed change to one exercise slot's target.
// Values are pounds for weight recommendations; for rep recommendations
// OldValue/NewValue carry the rep-range minimum and the maximum moves by the
// same delta.
type Recommendation struct {
	SlotID   primitive.ObjectID
	Field    domain.ProgressionField
	OldValue float64
	NewValue float64
	Reason   domain.ProgressionReason
}

// Evaluate applies the progression rules to a just-logged set.
//
// actualReps is the logged rep count; lastRIR is the reps-in-reserve the
// user reported during the PRIOR set's rest period (RIR feedback always
// informs the next set, never the set it followed). Nil lastRIR means no
// signal. Returns nil when no change is warranted.
func Evaluate(slot *domain.ProgramExercise, actualReps int, lastRIR *int) *Recommendation {
	if slot.IsInterval() || slot.IsDurationBased() {
		// Timer-driven slots have no rep range to progress against.
		return nil
	}
	if slot.RepsMin <= 0 || slot.RepsMax <= 0 {
		return nil
	}

	switch {
	case actualReps < slot.RepsMin:
		return reduce(slot, actualReps)
	case actualReps > slot.RepsMax:
		return increase(slot, lastRIR, domain.ReasonRepsAboveRange)
	case lastRIR != nil && *lastRIR > rirIncreaseThreshold:
		return increase(slot, lastRIR, domain.ReasonHighRIR)
	default:
		return nil
	}
}

func reduce(slot *domain.ProgramExercise, actualReps int) *Recommendation {
	deficit := slot.RepsMin - actualReps
	if slot.Equipment == domain.EquipmentBodyweight || slot.RecommendedWeight == nil {
		// No load to reduce: ease the rep range by one, floored at 1 rep.
		if slot.RepsMin <= 1 {
			return nil
		}
		return &Recommendation{
			SlotID:   slot.ID,
			Field:    domain.ProgressionReps,
			OldValue: float64(slot.RepsMin),
			NewValue: float64(slot.RepsMin - 1),
			Reason:   domain.ReasonRepsBelowRange,
		}
	}

	pct := smallReductionPct
	if deficit > smallDeficitMax {
		pct = bigReductionPct
	}
	oldWeight := *slot.RecommendedWeight
	newWeight := math.Round(oldWeight * (1 - pct))
	if newWeight == oldWeight {
		return nil
	}
	return &Recommendation{
		SlotID:   slot.ID,
		Field:    domain.ProgressionWeight,
		OldValue: oldWeight,
		NewValue: newWeight,
		Reason:   domain.ReasonRepsBelowRange,
	}
}

func increase(slot *domain.ProgramExercise, lastRIR *int, reason domain.ProgressionReason) *Recommendation {
	if slot.Equipment == domain.EquipmentBodyweight || slot.RecommendedWeight == nil {
		return &Recommendation{
			SlotID:   slot.ID,
			Field:    domain.ProgressionReps,
			OldValue: float64(slot.RepsMin),
			NewValue: float64(slot.RepsMin + 1),
			Reason:   reason,
		}
	}

	inc := weightIncrement
	if lastRIR != nil && *lastRIR >= rirBigIncreaseThreshold {
		inc = bigWeightIncrement
	}
	oldWeight := *slot.RecommendedWeight
	return &Recommendation{
		SlotID:   slot.ID,
		Field:    domain.ProgressionWeight,
		OldValue: oldWeight,
		NewValue: oldWeight + inc,
		Reason:   reason,
	}
}

// Apply mutates the in-memory slot so the very next set already sees the new
// target; persistence of the event is the caller's (best-effort) concern.
func (r *Recommendation) Apply(slot *domain.ProgramExercise) {
	switch r.Field {
	case domain.ProgressionWeight:
		w := r.NewValue
		slot.RecommendedWeight = &w
	case domain.ProgressionReps:
		applyRepRange(slot, int(r.NewValue))
	}
}

// applyRepRange moves the range minimum to newMin keeping the range width,
// floored at 1 rep. Absolute targets make replaying an event idempotent.
func applyRepRange(slot *domain.ProgramExercise, newMin int) {
	width := slot.RepsMax - slot.RepsMin
	if width < 0 {
		width = 0
	}
	if newMin < 1 {
		newMin = 1
	}
	slot.RepsMin = newMin
	slot.RepsMax = newMin + width
}

// ToEvent converts the recommendation into its persisted event form.
func (r *Recommendation) ToEvent(programID primitive.ObjectID, at time.Time) *domain.ProgressionEvent {
	return &domain.ProgressionEvent{
		ProgramID: programID,
		SlotID:    r.SlotID,
		Field:     r.Field,
		OldValue:  r.OldValue,
		NewValue:  r.NewValue,
		Reason:    r.Reason,
		At:        at,
	}
}

// FoldTargets derives a slot's current targets by replaying its progression
// events over the generated baseline. This is the read path that makes
// concurrent sessions and offline retries safe: nobody trusts the mutated
// document alone.
func FoldTargets(slot domain.ProgramExercise, events []domain.ProgressionEvent) domain.ProgramExercise {
	for _, ev := range events {
		switch ev.Field {
		case domain.ProgressionWeight:
			w := ev.NewValue
			slot.RecommendedWeight = &w
		case domain.ProgressionReps:
			applyRepRange(&slot, int(ev.NewValue))
		}
	}
	return slot
}
