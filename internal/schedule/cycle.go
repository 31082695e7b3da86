package schedule

import (
	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
)

// CycleStatus is the result of evaluating the current 7-day cycle after a
// session completes (or on load).
type CycleStatus struct {
	// ShouldPrompt is true exactly once per closed cycle: the first
	// evaluation after every session in the window resolved, and not again
	// until the user acts (repeat or new program).
	ShouldPrompt           bool              `json:"shouldPrompt"`
	Closed                 bool              `json:"closed"`
	CycleNumber            int               `json:"cycleNumber"`
	TotalWorkoutsCompleted int               `json:"totalWorkoutsCompleted"`
	CurrentCycleDates      []dates.LocalDate `json:"currentCycleDates"`
	// CompletedWorkouts counts non-rest completions inside the closed
	// window; RepeatCycle folds it into the lifetime total.
	CompletedWorkouts int `json:"completedWorkouts"`
}

// EvaluateCycle decides whether the active 7-day cycle (anchor through
// anchor+6) is fully resolved: every session in the window is complete,
// skipped, archived, or a rest day whose date has arrived.
//
// sessions must contain ALL of the program's sessions scheduled inside the
// window, archived ones included; archived history is what proves the early
// days of the cycle were resolved.
func EvaluateCycle(program *domain.Program, profile *domain.UserProfile, sessions []domain.WorkoutSession, today dates.LocalDate) CycleStatus {
	anchor := program.Anchor()
	status := CycleStatus{
		CycleNumber:            profile.CycleNumber,
		TotalWorkoutsCompleted: profile.TotalWorkoutsCompleted,
	}
	if anchor.IsZero() {
		return status
	}

	for day := 0; day < CycleDays; day++ {
		status.CurrentCycleDates = append(status.CurrentCycleDates, anchor.AddDays(day))
	}
	windowEnd := anchor.AddDays(CycleDays - 1)

	inWindow := 0
	for _, s := range sessions {
		d := s.Scheduled()
		if d.Before(anchor) {
			// Leftover from a previous cycle; archival owns it.
			continue
		}
		// Sessions pushed past the window edge by reconciliation still
		// belong to this cycle: the cycle cannot close while they are
		// pending, or repeating it would double-book their dates.
		if !resolved(&s, today) {
			return status
		}
		if s.SessionType == domain.SessionTypeWorkout && s.Completed {
			status.CompletedWorkouts++
		}
		if !d.After(windowEnd) {
			inWindow++
		}
	}
	if inWindow == 0 {
		// Nothing materialized yet; an empty window is not a finished one.
		return status
	}

	status.Closed = true
	// Fire the prompt only if it has not been surfaced for this cycle yet.
	status.ShouldPrompt = program.PromptedCycle < profile.CycleNumber
	return status
}

// resolved reports whether a session needs no further user action within its
// cycle. A rest day resolves as soon as its date arrives: there is nothing
// for the user to do on it.
func resolved(s *domain.WorkoutSession, today dates.LocalDate) bool {
	if s.Status.IsTerminal() {
		return true
	}
	if s.SessionType == domain.SessionTypeRest {
		return !s.Scheduled().After(today)
	}
	return false
}
