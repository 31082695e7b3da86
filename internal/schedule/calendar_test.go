package schedule

import (
	"testing"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testProgram(workoutCount int) *domain.Program {
	p := &domain.Program{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Name:   "Push Pull Legs",
	}
	names := []string{"Push Day", "Pull Day", "Leg Day", "Upper Day", "Lower Day"}
	for i := 0; i < workoutCount; i++ {
		p.Workouts = append(p.Workouts, domain.ProgramWorkout{
			ID:   primitive.NewObjectID(),
			Name: names[i%len(names)],
		})
	}
	return p
}

func testProfile(days ...int) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:       primitive.NewObjectID(),
		WeightKg:     80,
		Unit:         domain.UnitPounds,
		DaysPerWeek:  len(days),
		SelectedDays: days,
		CycleNumber:  1,
	}
}

func TestBuildCycleMonWedFri(t *testing.T) {
	program := testProgram(3)
	profile := testProfile(1, 3, 5)
	// 2025-06-16 is a Monday.
	start := dates.MustParse("2025-06-16")

	sessions, err := BuildCycle(program, profile, start)
	require.NoError(t, err)
	require.Len(t, sessions, CycleDays)

	wantTypes := []domain.SessionType{
		domain.SessionTypeWorkout, // Mon
		domain.SessionTypeRest,    // Tue
		domain.SessionTypeWorkout, // Wed
		domain.SessionTypeRest,    // Thu
		domain.SessionTypeWorkout, // Fri
		domain.SessionTypeRest,    // Sat
		domain.SessionTypeRest,    // Sun
	}
	for i, s := range sessions {
		assert.Equal(t, start.AddDays(i).String(), s.ScheduledDate)
		assert.Equal(t, wantTypes[i], s.SessionType, "day %d", i)
		assert.Equal(t, domain.StatusInProgress, s.Status)
		assert.Equal(t, program.ID, s.ProgramID)
		if s.SessionType == domain.SessionTypeWorkout {
			require.NotNil(t, s.ProgramWorkoutID)
		} else {
			assert.Nil(t, s.ProgramWorkoutID)
		}
	}

	// Workouts cycle through the program in order.
	assert.Equal(t, program.Workouts[0].ID, *sessions[0].ProgramWorkoutID)
	assert.Equal(t, program.Workouts[1].ID, *sessions[2].ProgramWorkoutID)
	assert.Equal(t, program.Workouts[2].ID, *sessions[4].ProgramWorkoutID)
}

func TestBuildCycleWrapsWorkoutsModulo(t *testing.T) {
	// Four training days against two workout templates: the third and
	// fourth day reuse templates one and two.
	program := testProgram(2)
	profile := testProfile(1, 2, 4, 6)
	start := dates.MustParse("2025-06-16")

	sessions, err := BuildCycle(program, profile, start)
	require.NoError(t, err)

	var workoutDays []domain.WorkoutSession
	for _, s := range sessions {
		if s.SessionType == domain.SessionTypeWorkout {
			workoutDays = append(workoutDays, s)
		}
	}
	require.Len(t, workoutDays, 4)
	assert.Equal(t, program.Workouts[0].ID, *workoutDays[0].ProgramWorkoutID)
	assert.Equal(t, program.Workouts[1].ID, *workoutDays[1].ProgramWorkoutID)
	assert.Equal(t, program.Workouts[0].ID, *workoutDays[2].ProgramWorkoutID)
	assert.Equal(t, program.Workouts[1].ID, *workoutDays[3].ProgramWorkoutID)
}

func TestBuildCycleMidweekStartStillMatchesWeekdays(t *testing.T) {
	program := testProgram(3)
	profile := testProfile(1, 3, 5)
	// 2025-06-19 is a Thursday: the window covers Thu..Wed, so training
	// lands on Fri, Mon and Wed.
	start := dates.MustParse("2025-06-19")

	sessions, err := BuildCycle(program, profile, start)
	require.NoError(t, err)

	byDate := map[string]domain.SessionType{}
	for _, s := range sessions {
		byDate[s.ScheduledDate] = s.SessionType
	}
	assert.Equal(t, domain.SessionTypeRest, byDate["2025-06-19"])    // Thu
	assert.Equal(t, domain.SessionTypeWorkout, byDate["2025-06-20"]) // Fri
	assert.Equal(t, domain.SessionTypeWorkout, byDate["2025-06-23"]) // Mon
	assert.Equal(t, domain.SessionTypeWorkout, byDate["2025-06-25"]) // Wed
}

func TestBuildCycleRejectsBadConfig(t *testing.T) {
	start := dates.MustParse("2025-06-16")

	testCases := []struct {
		name    string
		program *domain.Program
		profile *domain.UserProfile
	}{
		{
			name:    "zero days per week",
			program: testProgram(3),
			profile: &domain.UserProfile{DaysPerWeek: 0},
		},
		{
			name:    "selected days mismatch",
			program: testProgram(3),
			profile: &domain.UserProfile{DaysPerWeek: 3, SelectedDays: []int{1, 3}},
		},
		{
			name:    "weekday out of range",
			program: testProgram(3),
			profile: &domain.UserProfile{DaysPerWeek: 2, SelectedDays: []int{0, 8}},
		},
		{
			name:    "program without workouts",
			program: testProgram(0),
			profile: testProfile(1, 3, 5),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sessions, err := BuildCycle(tc.program, tc.profile, start)
			assert.ErrorIs(t, err, ErrInvalidScheduleConfig)
			// Validation failures never produce a partial calendar.
			assert.Nil(t, sessions)
		})
	}
}
