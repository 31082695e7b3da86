package service

import (
	"context"
	"testing"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	programRepo *fakeProgramRepo
	profileRepo *fakeProfileRepo
	sessionRepo *fakeSessionRepo
	userID      primitive.ObjectID
	program     *domain.Program
}

// newFixture seeds an active 3-day program (Mon/Wed/Fri) and its profile.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		programRepo: newFakeProgramRepo(),
		profileRepo: newFakeProfileRepo(),
		sessionRepo: newFakeSessionRepo(),
		userID:      primitive.NewObjectID(),
	}

	f.profileRepo.profiles[f.userID] = &domain.UserProfile{
		UserID:       f.userID,
		WeightKg:     80,
		Unit:         domain.UnitPounds,
		DaysPerWeek:  3,
		SelectedDays: []int{1, 3, 5},
		CycleNumber:  1,
	}

	program := &domain.Program{
		UserID:   f.userID,
		Name:     "Push Pull Legs",
		IsActive: true,
		Workouts: []domain.ProgramWorkout{
			{Name: "Push Day"}, {Name: "Pull Day"}, {Name: "Leg Day"},
		},
	}
	_, err := f.programRepo.Create(context.Background(), program)
	require.NoError(t, err)
	f.program = f.programRepo.programs[program.ID]
	return f
}

func (f *fixture) scheduleService(today string) ScheduleService {
	clock := dates.FixedClock{Day: dates.MustParse(today)}
	return NewScheduleService(f.programRepo, f.profileRepo, f.sessionRepo, noGuard{}, clock)
}

func (f *fixture) addSession(date string, sType domain.SessionType, status domain.SessionStatus) primitive.ObjectID {
	s := &domain.WorkoutSession{
		UserID:        f.userID,
		ProgramID:     f.program.ID,
		SessionType:   sType,
		ScheduledDate: date,
		Status:        status,
	}
	id, _ := f.sessionRepo.Create(context.Background(), s)
	return id
}

func TestMaterializeCycleAnchorsFreshProgramToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.scheduleService("2025-06-16") // Monday

	sessions, err := svc.MaterializeCycle(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, sessions, 7)

	assert.Equal(t, "2025-06-16", f.programRepo.programs[f.program.ID].AnchorDate)
	assert.Equal(t, domain.SessionTypeWorkout, sessions[0].SessionType)
	assert.Equal(t, domain.SessionTypeRest, sessions[1].SessionType)

	// Already materialized: a second call must not double-book the window.
	_, err = svc.MaterializeCycle(ctx, f.userID)
	assert.ErrorIs(t, err, ErrScheduleNotEmpty)
}

func TestMaterializeCycleWithoutProfileOrProgram(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.scheduleService("2025-06-16")

	_, err := svc.MaterializeCycle(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProfileNotFound)

	f.program.IsActive = false
	_, err = svc.MaterializeCycle(ctx, f.userID)
	assert.ErrorIs(t, err, ErrNoActiveProgram)
}

func TestMissedWorkoutsUsesLocalToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addSession("2025-06-16", domain.SessionTypeWorkout, domain.StatusInProgress)
	f.addSession("2025-06-17", domain.SessionTypeRest, domain.StatusInProgress)
	f.addSession("2025-06-18", domain.SessionTypeWorkout, domain.StatusInProgress)

	// On the 18th only the 16th is missed; the 18th itself is still live.
	missed, err := f.scheduleService("2025-06-18").MissedWorkouts(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, "2025-06-16", missed[0].ScheduledDate)
}

func TestReconcileOnLoadFullSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.program.AnchorDate = "2025-06-16"

	doneMon := f.addSession("2025-06-16", domain.SessionTypeWorkout, domain.StatusComplete)
	restTue := f.addSession("2025-06-17", domain.SessionTypeRest, domain.StatusInProgress)
	missedWed := f.addSession("2025-06-18", domain.SessionTypeWorkout, domain.StatusInProgress)
	pendingFri := f.addSession("2025-06-20", domain.SessionTypeWorkout, domain.StatusInProgress)

	report, err := f.scheduleService("2025-06-20").ReconcileOnLoad(ctx, f.userID)
	require.NoError(t, err)

	// The overdue rest day completed, then archived along with Monday.
	assert.Equal(t, 1, report.RestCompleted)
	assert.Equal(t, 2, report.Archived)
	assert.Equal(t, domain.StatusArchived, f.sessionRepo.sessions[doneMon].Status)
	assert.Equal(t, domain.StatusArchived, f.sessionRepo.sessions[restTue].Status)

	// Wednesday's miss shifts the tail by 2 days: Wed->Fri, Fri->Sun.
	assert.Equal(t, 2, report.Rescheduled)
	assert.Equal(t, "2025-06-20", f.sessionRepo.sessions[missedWed].ScheduledDate)
	assert.Equal(t, "2025-06-22", f.sessionRepo.sessions[pendingFri].ScheduledDate)

	// Re-run: nothing new to do.
	again, err := f.scheduleService("2025-06-20").ReconcileOnLoad(ctx, f.userID)
	require.NoError(t, err)
	assert.Zero(t, again.RestCompleted)
	assert.Zero(t, again.Archived)
	assert.Zero(t, again.Rescheduled)
}

func TestReconcileSkipsLiveSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	missed := f.addSession("2025-06-18", domain.SessionTypeWorkout, domain.StatusInProgress)

	clock := dates.FixedClock{Day: dates.MustParse("2025-06-20")}
	guard := staticGuard{missed: {}}
	svc := NewScheduleService(f.programRepo, f.profileRepo, f.sessionRepo, guard, clock)

	report, err := svc.ReconcileOnLoad(ctx, f.userID)
	require.NoError(t, err)
	assert.Zero(t, report.Rescheduled)
	assert.Equal(t, 1, report.Conflicts)
	// The live session kept its date.
	assert.Equal(t, "2025-06-18", f.sessionRepo.sessions[missed].ScheduledDate)
}

func TestSkipMissedLeavesFutureAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	missed1 := f.addSession("2025-06-16", domain.SessionTypeWorkout, domain.StatusInProgress)
	missed2 := f.addSession("2025-06-18", domain.SessionTypeWorkout, domain.StatusInProgress)
	future := f.addSession("2025-06-21", domain.SessionTypeWorkout, domain.StatusInProgress)

	skipped, err := f.scheduleService("2025-06-20").SkipMissed(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)

	assert.Equal(t, domain.StatusSkipped, f.sessionRepo.sessions[missed1].Status)
	assert.Equal(t, domain.StatusSkipped, f.sessionRepo.sessions[missed2].Status)
	assert.Equal(t, domain.StatusInProgress, f.sessionRepo.sessions[future].Status)
	assert.Equal(t, "2025-06-21", f.sessionRepo.sessions[future].ScheduledDate)
}

func TestNightlySweepCoversAllActivePrograms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	missed := f.addSession("2025-06-18", domain.SessionTypeWorkout, domain.StatusInProgress)

	// A second user with a clean schedule; the sweep must not touch it.
	otherUser := primitive.NewObjectID()
	f.profileRepo.profiles[otherUser] = &domain.UserProfile{
		UserID: otherUser, WeightKg: 70, Unit: domain.UnitKilograms,
		DaysPerWeek: 2, SelectedDays: []int{2, 4}, CycleNumber: 1,
	}
	other := &domain.Program{UserID: otherUser, Name: "Upper Lower", IsActive: true,
		Workouts: []domain.ProgramWorkout{{Name: "Upper"}}}
	_, err := f.programRepo.Create(ctx, other)
	require.NoError(t, err)

	f.scheduleService("2025-06-20").NightlySweep(ctx)
	assert.Equal(t, "2025-06-20", f.sessionRepo.sessions[missed].ScheduledDate)
}
