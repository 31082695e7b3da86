// Package sequencer drives a single workout session end-to-end: stepping
// through exercises, sets, superset pairs and HIIT interval blocks, running
// the rest timer, feeding the progression engine, and producing the session
// summary. It is an in-process state machine consumed by the UI layer; all
// execution is cooperative and driven by user actions plus a one-second
// Tick.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"alcyxob/adaptive-fitness/internal/calories"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/progression"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// State of the session state machine. A single tagged state replaces the
// scattered index/flag booleans this flow tends to accumulate once
// superset, HIIT and duration-based paths intermix.
type State string

const (
	// StateUninitialized means the backing session record does not exist
	// yet (or its creation failed); no sets may be logged. Start retries
	// creation.
	StateUninitialized State = "uninitialized"
	StateAwaitingInput State = "awaiting_input"
	StateRestTimer     State = "rest_timer"
	// StateIntervalRunning is the timer-driven HIIT path; manual logging is
	// rejected while it runs.
	StateIntervalRunning State = "interval_running"
	StateComplete        State = "complete"
)

var (
	ErrSessionNotInitialized = errors.New("session not initialized, retry start")
	ErrSessionComplete       = errors.New("session already complete")
	ErrNotAwaitingInput      = errors.New("no set input expected in current state")
	ErrRepsRequired          = errors.New("reps are required for this exercise")
	ErrWeightRequired        = errors.New("weight is required for this exercise")
	ErrDurationRequired      = errors.New("duration is required for this exercise")
	ErrManualLogNotAllowed   = errors.New("interval exercise is timer-driven, sets cannot be logged manually")
	ErrInvalidSuperset       = errors.New("superset group must be exactly two adjacent exercises ordered 1 and 2")
)

// DefaultRestSeconds applies when a slot carries no rest prescription.
const DefaultRestSeconds = 90

// SessionStore is the persistence gate for the sequencer. StartSession must
// succeed before any set can be logged; CompleteSession writes the final
// summary back onto the session record.
type SessionStore interface {
	StartSession(ctx context.Context, programID primitive.ObjectID, programWorkoutID *primitive.ObjectID) (*domain.WorkoutSession, error)
	CompleteSession(ctx context.Context, sessionID primitive.ObjectID, summary Summary) error
}

// ProgressionSink persists progression events. Writes are best-effort: a
// failure is logged and the in-memory target still advances, so the user is
// never blocked mid-session.
type ProgressionSink interface {
	RecordProgression(ctx context.Context, event *domain.ProgressionEvent) error
}

// SetInput is the user-entered result of one set.
type SetInput struct {
	Reps            int
	DurationSeconds int
	// Weight in pounds.
	Weight float64
}

// Summary is emitted when the session completes or is ended early.
type Summary struct {
	DurationMinutes    int     `json:"durationMinutes"`
	ExerciseCount      int     `json:"exerciseCount"`
	CompletedExercises int     `json:"completedExercises"`
	TotalVolume        float64 `json:"totalVolume"`
	Calories           int     `json:"calories"`
	Incomplete         bool    `json:"incomplete"`
}

// Config carries the per-session fixed inputs.
type Config struct {
	ProgramID primitive.ObjectID
	Workout   *domain.ProgramWorkout
	WeightKg  float64
	Intensity calories.Intensity
	// RestSeconds overrides DefaultRestSeconds when positive.
	RestSeconds int
}

// Sequencer is the per-session state machine. Not safe for concurrent use;
// the execution model is single-user, event-driven.
type Sequencer struct {
	log       *logrus.Entry
	cfg       Config
	store     SessionStore
	sink      ProgressionSink
	estimator calories.Estimator

	session  *domain.WorkoutSession
	startErr error

	// Working copy of the workout's slots; progression mutates these.
	exercises []domain.ProgramExercise
	// units groups exercise indices into execution units: a superset pair is
	// one inseparable unit, everything else is a unit of one.
	units [][]int

	state       State
	currentUnit int
	posInUnit   int
	setNumber   int

	paused   bool
	swapping bool

	elapsedSeconds int
	restRemaining  int

	intervalRound     int
	intervalInWork    bool
	intervalRemaining int

	// pendingRIR is what the user reported during the previous rest period;
	// it informs the NEXT logged set's progression, then clears.
	pendingRIR    *int
	rirPromptOpen bool
	// banner holds the recommendation produced by the last logged set; it is
	// shown for the next set only, then cleared.
	banner *progression.Recommendation

	logged       [][]domain.SetLogEntry
	completed    []bool
	finalSummary *Summary
}

// New builds a sequencer for one workout. The backing session record is not
// created until Start.
func New(cfg Config, store SessionStore, sink ProgressionSink, estimator calories.Estimator) (*Sequencer, error) {
	if cfg.Workout == nil || len(cfg.Workout.Exercises) == 0 {
		return nil, errors.New("workout with at least one exercise is required")
	}
	exercises := make([]domain.ProgramExercise, len(cfg.Workout.Exercises))
	copy(exercises, cfg.Workout.Exercises)

	units, err := buildUnits(exercises)
	if err != nil {
		return nil, err
	}

	return &Sequencer{
		log: logrus.WithFields(logrus.Fields{
			"component": "sequencer",
			"workout":   cfg.Workout.Name,
		}),
		cfg:       cfg,
		store:     store,
		sink:      sink,
		estimator: estimator,
		exercises: exercises,
		units:     units,
		state:     StateUninitialized,
		logged:    make([][]domain.SetLogEntry, len(exercises)),
		completed: make([]bool, len(exercises)),
	}, nil
}

// buildUnits validates superset pairing and groups slots into execution
// units. A superset pair must be exactly two adjacent slots sharing a group,
// ordered 1 then 2.
func buildUnits(exercises []domain.ProgramExercise) ([][]int, error) {
	var units [][]int
	for i := 0; i < len(exercises); i++ {
		ex := &exercises[i]
		if !ex.InSuperset() {
			units = append(units, []int{i})
			continue
		}
		if ex.SupersetOrder != 1 {
			return nil, fmt.Errorf("%w: slot %q has order %d without a leading partner",
				ErrInvalidSuperset, ex.ExerciseName, ex.SupersetOrder)
		}
		if i+1 >= len(exercises) {
			return nil, fmt.Errorf("%w: slot %q has no partner", ErrInvalidSuperset, ex.ExerciseName)
		}
		partner := &exercises[i+1]
		if !partner.InSuperset() || *partner.SupersetGroup != *ex.SupersetGroup || partner.SupersetOrder != 2 {
			return nil, fmt.Errorf("%w: slot %q pairing is malformed", ErrInvalidSuperset, ex.ExerciseName)
		}
		units = append(units, []int{i, i + 1})
		i++ // consume the partner
	}
	return units, nil
}

// Start creates the backing session record. Until it succeeds the sequencer
// is blocked: calling it again is the retry action, with the same workout.
func (s *Sequencer) Start(ctx context.Context) error {
	if s.state != StateUninitialized {
		return nil
	}
	var workoutID *primitive.ObjectID
	if s.cfg.Workout.ID != primitive.NilObjectID {
		id := s.cfg.Workout.ID
		workoutID = &id
	}
	session, err := s.store.StartSession(ctx, s.cfg.ProgramID, workoutID)
	if err != nil {
		s.startErr = err
		s.log.WithError(err).Error("session creation failed, sequencer blocked")
		return fmt.Errorf("%w: %w", ErrSessionNotInitialized, err)
	}
	s.session = session
	s.startErr = nil
	s.setNumber = 1
	s.enterUnit()
	return nil
}

// enterUnit puts the machine in the right state for the current exercise:
// interval blocks run on the timer, everything else awaits input.
func (s *Sequencer) enterUnit() {
	ex := s.CurrentExercise()
	if ex.IsInterval() {
		s.state = StateIntervalRunning
		s.intervalRound = 1
		s.intervalInWork = true
		s.intervalRemaining = ex.WorkSeconds
		return
	}
	s.state = StateAwaitingInput
}

// LogSet records the result of the current set, runs progression and
// transitions the machine. Validation is per exercise kind: duration slots
// need a duration, rep slots need reps, weighted rep slots need a weight.
func (s *Sequencer) LogSet(ctx context.Context, input SetInput) error {
	switch s.state {
	case StateUninitialized:
		return ErrSessionNotInitialized
	case StateComplete:
		return ErrSessionComplete
	case StateIntervalRunning:
		return ErrManualLogNotAllowed
	case StateRestTimer:
		return ErrNotAwaitingInput
	}

	ex := s.CurrentExercise()
	if err := validateInput(ex, input); err != nil {
		return err
	}

	// The previous set's banner expires as soon as the next set is logged.
	s.banner = nil

	exIdx := s.units[s.currentUnit][s.posInUnit]
	entry := domain.SetLogEntry{
		SlotID:          ex.ID,
		SetNumber:       s.setNumber,
		ActualReps:      input.Reps,
		DurationSeconds: input.DurationSeconds,
		ActualWeight:    input.Weight,
	}
	s.logged[exIdx] = append(s.logged[exIdx], entry)

	s.runProgression(ctx, ex, input.Reps)

	return s.advance(ctx)
}

func validateInput(ex *domain.ProgramExercise, input SetInput) error {
	if ex.IsDurationBased() {
		if input.DurationSeconds <= 0 {
			return ErrDurationRequired
		}
		return nil
	}
	if input.Reps <= 0 {
		return ErrRepsRequired
	}
	if ex.Equipment == domain.EquipmentWeighted && input.Weight <= 0 {
		return ErrWeightRequired
	}
	return nil
}

// runProgression evaluates the just-logged set against the RIR reported in
// the previous rest period, applies any recommendation to the in-memory
// slot, and persists the event best-effort.
func (s *Sequencer) runProgression(ctx context.Context, ex *domain.ProgramExercise, actualReps int) {
	priorRIR := s.pendingRIR
	s.pendingRIR = nil

	rec := progression.Evaluate(ex, actualReps, priorRIR)
	if rec == nil {
		return
	}
	rec.Apply(ex)
	s.banner = rec

	event := rec.ToEvent(s.cfg.ProgramID, time.Now().UTC())
	if err := s.sink.RecordProgression(ctx, event); err != nil {
		// Best-effort by design: the in-memory target already advanced, the
		// user keeps training; the next session may lag until a sync.
		s.log.WithError(err).WithField("slotId", rec.SlotID.Hex()).
			Warn("progression write failed")
	}
}

// advance decides the next transition after a successful set log.
func (s *Sequencer) advance(ctx context.Context) error {
	unit := s.units[s.currentUnit]
	// The rest prescription comes from the exercise just performed, not from
	// whichever slot the machine moves to next.
	justDone := s.CurrentExercise()

	// First member of a superset: jump straight to the partner, same set
	// number, no rest. The pair executes as one inseparable A->B unit.
	if s.posInUnit < len(unit)-1 {
		s.posInUnit++
		s.state = StateAwaitingInput
		return nil
	}

	targetSets := s.exercises[unit[0]].TargetSets
	if s.setNumber < targetSets {
		// More sets in this unit: back to the first member, next set number,
		// rest first.
		s.setNumber++
		s.posInUnit = 0
		s.openRIRPrompt()
		s.startRest(justDone)
		return nil
	}

	// Unit finished.
	for _, idx := range unit {
		s.completed[idx] = true
	}
	if s.currentUnit == len(s.units)-1 {
		// Last set of the last exercise: no rest, no RIR prompt.
		return s.finish(ctx, false)
	}
	s.currentUnit++
	s.posInUnit = 0
	s.setNumber = 1
	s.openRIRPrompt()
	s.startRest(justDone)
	return nil
}

func (s *Sequencer) startRest(justDone *domain.ProgramExercise) {
	rest := justDone.RestSeconds
	if rest <= 0 {
		rest = s.cfg.RestSeconds
	}
	if rest <= 0 {
		rest = DefaultRestSeconds
	}
	s.restRemaining = rest
	s.state = StateRestTimer
}

// openRIRPrompt arms the reps-in-reserve question shown during rest. The
// answer feeds the NEXT set's progression.
func (s *Sequencer) openRIRPrompt() {
	s.rirPromptOpen = true
}

// ReportRIR records the user's reps-in-reserve answer for the set just
// performed. It applies to the next set, never retroactively.
func (s *Sequencer) ReportRIR(rir int) {
	if !s.rirPromptOpen {
		return
	}
	if rir < 0 {
		rir = 0
	}
	s.pendingRIR = &rir
	s.rirPromptOpen = false
}

// Tick advances the machine by one second of wall time. The elapsed workout
// clock freezes while paused or mid-swap; rest and interval timers keep
// running on the wall clock.
func (s *Sequencer) Tick(ctx context.Context) error {
	if s.state == StateComplete || s.state == StateUninitialized {
		return nil
	}
	if !s.paused && !s.swapping {
		s.elapsedSeconds++
	}

	switch s.state {
	case StateRestTimer:
		s.restRemaining--
		if s.restRemaining <= 0 {
			s.enterUnit()
		}
	case StateIntervalRunning:
		return s.tickInterval(ctx)
	}
	return nil
}

// tickInterval runs the fixed work/rest cycle of a HIIT block. Completing
// the final round completes every set of the block in one atomic step.
func (s *Sequencer) tickInterval(ctx context.Context) error {
	ex := s.CurrentExercise()
	s.intervalRemaining--
	if s.intervalRemaining > 0 {
		return nil
	}

	if s.intervalInWork {
		if s.intervalRound >= ex.TargetSets {
			return s.completeIntervalBlock(ctx, ex)
		}
		if ex.RestSeconds > 0 {
			s.intervalInWork = false
			s.intervalRemaining = ex.RestSeconds
			return nil
		}
		s.intervalRound++
		s.intervalRemaining = ex.WorkSeconds
		return nil
	}

	s.intervalInWork = true
	s.intervalRound++
	s.intervalRemaining = ex.WorkSeconds
	return nil
}

func (s *Sequencer) completeIntervalBlock(ctx context.Context, ex *domain.ProgramExercise) error {
	exIdx := s.units[s.currentUnit][s.posInUnit]
	for round := 1; round <= ex.TargetSets; round++ {
		s.logged[exIdx] = append(s.logged[exIdx], domain.SetLogEntry{
			SlotID:          ex.ID,
			SetNumber:       round,
			DurationSeconds: ex.WorkSeconds,
		})
	}
	s.completed[exIdx] = true

	if s.currentUnit == len(s.units)-1 {
		return s.finish(ctx, false)
	}
	s.currentUnit++
	s.posInUnit = 0
	s.setNumber = 1
	s.enterUnit()
	return nil
}

// SkipRest ends the rest period immediately.
func (s *Sequencer) SkipRest() {
	if s.state != StateRestTimer {
		return
	}
	s.restRemaining = 0
	s.enterUnit()
}

// Pause freezes the elapsed-time clock without resetting it. Navigation and
// timers keep working.
func (s *Sequencer) Pause() { s.paused = true }

// Resume unfreezes the elapsed-time clock.
func (s *Sequencer) Resume() { s.paused = false }

// BeginSwap suspends the workout clock while the user picks a replacement
// exercise.
func (s *Sequencer) BeginSwap() { s.swapping = true }

// CancelSwap resumes without a change.
func (s *Sequencer) CancelSwap() { s.swapping = false }

// CompleteSwap replaces the exercise reference on the current slot. Progress
// already logged in this session is kept.
func (s *Sequencer) CompleteSwap(newName string, equipment domain.Equipment) {
	ex := s.CurrentExercise()
	ex.ExerciseName = newName
	if equipment != "" {
		ex.Equipment = equipment
	}
	s.swapping = false
	s.log.WithField("exercise", newName).Info("exercise swapped in")
}

// EndEarly terminates the session now. The summary covers completed
// exercises only; everything after the current index stays as scheduled and
// is simply absent from the summary.
func (s *Sequencer) EndEarly(ctx context.Context) error {
	switch s.state {
	case StateUninitialized:
		return ErrSessionNotInitialized
	case StateComplete:
		return ErrSessionComplete
	}
	return s.finish(ctx, true)
}

// finish computes the summary, transitions to Complete and writes the
// session record back. A failed completion write is returned for the UI to
// retry via a sync path, but the machine still lands in Complete: the user
// is done training either way.
func (s *Sequencer) finish(ctx context.Context, incomplete bool) error {
	summary := s.buildSummary(incomplete)
	s.state = StateComplete
	s.rirPromptOpen = false
	s.banner = nil
	s.finalSummary = &summary

	if err := s.store.CompleteSession(ctx, s.session.ID, summary); err != nil {
		s.log.WithError(err).Error("failed to persist session completion")
		return err
	}
	s.log.WithFields(logrus.Fields{
		"durationMin": summary.DurationMinutes,
		"volume":      summary.TotalVolume,
		"incomplete":  summary.Incomplete,
	}).Info("session complete")
	return nil
}

func (s *Sequencer) buildSummary(incomplete bool) Summary {
	minutes := int(math.Round(float64(s.elapsedSeconds) / 60))
	completedCount := 0
	var volume float64
	for i := range s.exercises {
		if !s.completed[i] {
			continue
		}
		completedCount++
		for _, entry := range s.logged[i] {
			volume += entry.ActualWeight
		}
	}
	return Summary{
		DurationMinutes:    minutes,
		ExerciseCount:      len(s.exercises),
		CompletedExercises: completedCount,
		TotalVolume:        volume,
		Calories:           s.estimator.CaloriesBurned(minutes, s.cfg.WeightKg, s.cfg.Intensity),
		Incomplete:         incomplete,
	}
}

// --- Accessors for the UI layer ---

func (s *Sequencer) State() State { return s.state }

// StartError returns the last session-creation failure, if any.
func (s *Sequencer) StartError() error { return s.startErr }

// Session returns the backing session record, nil until Start succeeds.
func (s *Sequencer) Session() *domain.WorkoutSession { return s.session }

// CurrentExercise returns the slot the machine is positioned on.
func (s *Sequencer) CurrentExercise() *domain.ProgramExercise {
	return &s.exercises[s.units[s.currentUnit][s.posInUnit]]
}

// SetNumber is the 1-based number of the set currently being performed.
func (s *Sequencer) SetNumber() int { return s.setNumber }

// ElapsedSeconds is the accumulated workout clock.
func (s *Sequencer) ElapsedSeconds() int { return s.elapsedSeconds }

// RestRemaining is the rest timer countdown, zero outside StateRestTimer.
func (s *Sequencer) RestRemaining() int { return s.restRemaining }

// IntervalRound reports the current HIIT round, zero outside interval blocks.
func (s *Sequencer) IntervalRound() int { return s.intervalRound }

// RIRPromptOpen reports whether the reps-in-reserve question should be
// shown.
func (s *Sequencer) RIRPromptOpen() bool { return s.rirPromptOpen }

// Banner returns the progression recommendation to show for the upcoming
// set, nil when there is none.
func (s *Sequencer) Banner() *progression.Recommendation { return s.banner }

// Summary returns the final summary once the session completed.
func (s *Sequencer) Summary() *Summary { return s.finalSummary }

// LoggedSets returns the sets logged against the exercise at idx.
func (s *Sequencer) LoggedSets(idx int) []domain.SetLogEntry {
	if idx < 0 || idx >= len(s.logged) {
		return nil
	}
	return s.logged[idx]
}

// Paused reports whether the workout clock is frozen by an explicit pause.
func (s *Sequencer) Paused() bool { return s.paused }
