// Package schedule holds the calendar logic of the engine: mapping a
// generated program onto dated sessions, reconciling missed workouts, and
// tracking 7-day cycles. Everything here is pure over in-memory state; the
// service layer does the repository IO around it.
package schedule

import (
	"errors"
	"fmt"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
)

// CycleDays is the length of one scheduling cycle. Cycle boundaries are
// always this many consecutive calendar days from the program's anchor.
const CycleDays = 7

// ErrInvalidScheduleConfig is fatal for the scheduling call that raised it;
// no partial calendar may be written.
var ErrInvalidScheduleConfig = errors.New("invalid schedule configuration")

// BuildCycle materializes one 7-day cycle of session drafts starting at
// start: a workout session on each selected weekday (cycling through the
// program's workouts in order, modulo workout count) and a rest session on
// every other day.
func BuildCycle(program *domain.Program, profile *domain.UserProfile, start dates.LocalDate) ([]domain.WorkoutSession, error) {
	if err := validateConfig(program, profile); err != nil {
		return nil, err
	}

	sessions := make([]domain.WorkoutSession, 0, CycleDays)
	workoutIdx := 0
	for day := 0; day < CycleDays; day++ {
		date := start.AddDays(day)
		session := domain.WorkoutSession{
			UserID:        program.UserID,
			ProgramID:     program.ID,
			SessionType:   domain.SessionTypeRest,
			ScheduledDate: date.String(),
			Status:        domain.StatusInProgress,
		}
		if profile.TrainsOn(date.Weekday()) {
			workout := program.Workouts[workoutIdx%len(program.Workouts)]
			workoutID := workout.ID
			session.SessionType = domain.SessionTypeWorkout
			session.ProgramWorkoutID = &workoutID
			workoutIdx++
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func validateConfig(program *domain.Program, profile *domain.UserProfile) error {
	if profile.DaysPerWeek <= 0 {
		return fmt.Errorf("%w: daysPerWeek must be positive, got %d",
			ErrInvalidScheduleConfig, profile.DaysPerWeek)
	}
	if len(profile.SelectedDays) != profile.DaysPerWeek {
		return fmt.Errorf("%w: %d selected days for %d days per week",
			ErrInvalidScheduleConfig, len(profile.SelectedDays), profile.DaysPerWeek)
	}
	for _, d := range profile.SelectedDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidScheduleConfig, d)
		}
	}
	if len(program.Workouts) == 0 {
		return fmt.Errorf("%w: program has no workouts", ErrInvalidScheduleConfig)
	}
	return nil
}
