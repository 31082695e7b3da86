package service

import (
	"context"
	"testing"

	"alcyxob/adaptive-fitness/internal/calories"
	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/sequencer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *fixture) sessionService(today string) SessionService {
	clock := dates.FixedClock{Day: dates.MustParse(today)}
	return NewSessionService(f.sessionRepo, f.programRepo, f.profileRepo,
		f.progressionRepo, calories.NewMETEstimator(), clock)
}

// addSlot attaches a weighted exercise slot to the fixture program's first
// workout and returns its ID.
func (f *fixture) addSlot(weight float64) primitive.ObjectID {
	slotID := primitive.NewObjectID()
	f.program.Workouts[0].Exercises = append(f.program.Workouts[0].Exercises, domain.ProgramExercise{
		ID:                slotID,
		ExerciseName:      "Bench Press",
		Equipment:         domain.EquipmentWeighted,
		TargetSets:        3,
		RepsMin:           8,
		RepsMax:           10,
		RecommendedWeight: &weight,
	})
	return slotID
}

func TestStartSessionReusesTodaysScheduledSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	scheduled := f.addSession("2025-06-16", domain.SessionTypeWorkout, domain.StatusInProgress)
	svc := f.sessionService("2025-06-16")

	workoutID := f.program.Workouts[0].ID
	session, err := svc.StartSession(ctx, f.program.ID, &workoutID)
	require.NoError(t, err)

	assert.Equal(t, scheduled, session.ID)
	assert.True(t, svc.IsActive(scheduled))
	// No duplicate session was written for the day.
	all, err := f.sessionRepo.GetByProgramID(ctx, f.program.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStartSessionUpgradesRestDayInPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	restID := f.addSession("2025-06-17", domain.SessionTypeRest, domain.StatusInProgress)
	svc := f.sessionService("2025-06-17")

	workoutID := f.program.Workouts[1].ID
	session, err := svc.StartSession(ctx, f.program.ID, &workoutID)
	require.NoError(t, err)

	assert.Equal(t, restID, session.ID)
	stored := f.sessionRepo.sessions[restID]
	assert.Equal(t, domain.SessionTypeWorkout, stored.SessionType)
	require.NotNil(t, stored.ProgramWorkoutID)
	assert.Equal(t, workoutID, *stored.ProgramWorkoutID)
}

func TestStartSessionCreatesAdHocWhenNothingScheduled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.sessionService("2025-06-16")

	session, err := svc.StartSession(ctx, f.program.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-16", session.ScheduledDate)
	assert.Equal(t, domain.SessionTypeWorkout, session.SessionType)
	assert.Equal(t, f.userID, session.UserID)
	assert.True(t, svc.IsActive(session.ID))
}

func TestCompleteSessionWritesSummaryAndReleases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addSession("2025-06-16", domain.SessionTypeWorkout, domain.StatusInProgress)
	svc := f.sessionService("2025-06-16")

	session, err := svc.StartSession(ctx, f.program.ID, nil)
	require.NoError(t, err)
	require.True(t, svc.IsActive(session.ID))

	err = svc.CompleteSession(ctx, session.ID, sequencer.Summary{
		DurationMinutes: 42,
		Calories:        310,
	})
	require.NoError(t, err)

	stored := f.sessionRepo.sessions[session.ID]
	assert.Equal(t, domain.StatusComplete, stored.Status)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.SessionDate)
	assert.Equal(t, 42, stored.DurationMinutes)
	assert.Equal(t, 310, stored.Calories)
	assert.False(t, svc.IsActive(session.ID))
}

func TestCompleteSessionUnknownIDReleasesAnyway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.sessionService("2025-06-16")

	err := svc.CompleteSession(ctx, primitive.NewObjectID(), sequencer.Summary{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordProgressionAppendsEventAndMirrorsTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slotID := f.addSlot(100)
	svc := f.sessionService("2025-06-16")

	err := svc.RecordProgression(ctx, &domain.ProgressionEvent{
		ProgramID: f.program.ID,
		SlotID:    slotID,
		Field:     domain.ProgressionWeight,
		OldValue:  100,
		NewValue:  105,
		Reason:    domain.ReasonRepsAboveRange,
	})
	require.NoError(t, err)

	require.Len(t, f.progressionRepo.events, 1)
	assert.NotEqual(t, primitive.NilObjectID, f.progressionRepo.events[0].ID)

	mirrored := f.program.Workouts[0].Exercises[len(f.program.Workouts[0].Exercises)-1]
	require.NotNil(t, mirrored.RecommendedWeight)
	assert.Equal(t, 105.0, *mirrored.RecommendedWeight)
}

func TestRecordProgressionUnknownSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.sessionService("2025-06-16")

	err := svc.RecordProgression(ctx, &domain.ProgressionEvent{
		ProgramID: f.program.ID,
		SlotID:    primitive.NewObjectID(),
		Field:     domain.ProgressionWeight,
		NewValue:  105,
	})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCurrentTargetRecoversLostMirrorWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slotID := f.addSlot(100)
	svc := f.sessionService("2025-06-16")

	// Event appended but the mirror write never landed: the embedded document
	// still says 100 while the log says 110.
	_, err := f.progressionRepo.Append(ctx, &domain.ProgressionEvent{
		ProgramID: f.program.ID,
		SlotID:    slotID,
		Field:     domain.ProgressionWeight,
		OldValue:  100,
		NewValue:  110,
		Reason:    domain.ReasonHighRIR,
	})
	require.NoError(t, err)

	target, err := svc.CurrentTarget(ctx, f.program.ID, slotID)
	require.NoError(t, err)
	require.NotNil(t, target.RecommendedWeight)
	assert.Equal(t, 110.0, *target.RecommendedWeight)

	// Reading again after a successful mirror write changes nothing: the
	// fold is idempotent.
	err = svc.RecordProgression(ctx, &domain.ProgressionEvent{
		ProgramID: f.program.ID,
		SlotID:    slotID,
		Field:     domain.ProgressionWeight,
		OldValue:  100,
		NewValue:  110,
		Reason:    domain.ReasonHighRIR,
	})
	require.NoError(t, err)
	target, err = svc.CurrentTarget(ctx, f.program.ID, slotID)
	require.NoError(t, err)
	assert.Equal(t, 110.0, *target.RecommendedWeight)
}

func TestLogCardioCreatesCompletedSessionWithEstimate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.sessionService("2025-06-16")

	session, err := svc.LogCardio(ctx, f.userID, 30, calories.IntensityModerate, "easy run")
	require.NoError(t, err)

	assert.Equal(t, "2025-06-16", session.ScheduledDate)
	assert.Equal(t, domain.StatusComplete, session.Status)
	assert.True(t, session.Completed)
	assert.Equal(t, 30, session.DurationMinutes)
	// MET formula: 5.0 MET * 80 kg * 0.5 h * 1.05 = 210 kcal.
	assert.Equal(t, 210, session.Calories)
	assert.Equal(t, "easy run", session.Notes)

	_, err = svc.LogCardio(ctx, f.userID, 0, calories.IntensityModerate, "")
	assert.Error(t, err)
}
