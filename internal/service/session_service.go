package service

import (
	"context"
	"errors"
	"sync"

	"alcyxob/adaptive-fitness/internal/calories"
	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/progression"
	"alcyxob/adaptive-fitness/internal/repository"
	"alcyxob/adaptive-fitness/internal/sequencer"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSlotNotFound    = errors.New("exercise slot not found")
)

// SessionService backs live sessions: it is the sequencer's SessionStore and
// ProgressionSink, tracks which sessions are live (so reconciliation stays
// out of their way), and handles ad-hoc cardio logging.
type SessionService interface {
	sequencer.SessionStore
	sequencer.ProgressionSink
	ActiveSessionGuard

	// Release drops a session from the live set without completing it, e.g.
	// when the user abandons the app mid-session.
	Release(sessionID primitive.ObjectID)
	// LogCardio records an ad-hoc cardio session for today: no program
	// workout behind it, completed immediately.
	LogCardio(ctx context.Context, userID primitive.ObjectID, durationMinutes int, intensity calories.Intensity, notes string) (*domain.WorkoutSession, error)
	// CurrentTarget returns an exercise slot with its progression events
	// folded in: the authoritative "current target" read path.
	CurrentTarget(ctx context.Context, programID, slotID primitive.ObjectID) (*domain.ProgramExercise, error)
}

type sessionService struct {
	sessionRepo     repository.SessionRepository
	programRepo     repository.ProgramRepository
	profileRepo     repository.ProfileRepository
	progressionRepo repository.ProgressionRepository
	estimator       calories.Estimator
	clock           dates.Clock
	log             *logrus.Entry

	mu     sync.Mutex
	active map[primitive.ObjectID]struct{}
}

// NewSessionService creates a new sessionService.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	programRepo repository.ProgramRepository,
	profileRepo repository.ProfileRepository,
	progressionRepo repository.ProgressionRepository,
	estimator calories.Estimator,
	clock dates.Clock,
) SessionService {
	return &sessionService{
		sessionRepo:     sessionRepo,
		programRepo:     programRepo,
		profileRepo:     profileRepo,
		progressionRepo: progressionRepo,
		estimator:       estimator,
		clock:           clock,
		log:             logrus.WithField("service", "session"),
		active:          map[primitive.ObjectID]struct{}{},
	}
}

// StartSession attaches a live sequencer to today's scheduled session,
// creating one if the calendar has none for today. Starting a workout on a
// rest day upgrades the rest session in place, preserving the one-session-
// per-day invariant.
func (s *sessionService) StartSession(ctx context.Context, programID primitive.ObjectID, programWorkoutID *primitive.ObjectID) (*domain.WorkoutSession, error) {
	today := s.clock.Today().String()
	existing, err := s.sessionRepo.GetByProgramAndDateRange(ctx, programID, today, today)
	if err != nil {
		return nil, err
	}

	var session *domain.WorkoutSession
	for i := range existing {
		if existing[i].Status == domain.StatusArchived {
			continue
		}
		session = &existing[i]
		break
	}

	if session == nil {
		draft := &domain.WorkoutSession{
			ProgramID:        programID,
			SessionType:      domain.SessionTypeWorkout,
			ProgramWorkoutID: programWorkoutID,
			ScheduledDate:    today,
			Status:           domain.StatusInProgress,
		}
		program, err := s.programRepo.GetByID(ctx, programID)
		if err == nil {
			draft.UserID = program.UserID
		}
		id, err := s.sessionRepo.Create(ctx, draft)
		if err != nil {
			return nil, err
		}
		draft.ID = id
		session = draft
	} else if session.SessionType == domain.SessionTypeRest {
		session.SessionType = domain.SessionTypeWorkout
		session.ProgramWorkoutID = programWorkoutID
		session.Status = domain.StatusInProgress
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.active[session.ID] = struct{}{}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"sessionId": session.ID.Hex(),
		"date":      session.ScheduledDate,
	}).Info("session started")
	return session, nil
}

// CompleteSession writes the sequencer's summary back and releases the
// session from the live set.
func (s *sessionService) CompleteSession(ctx context.Context, sessionID primitive.ObjectID, summary sequencer.Summary) error {
	defer s.Release(sessionID)

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	now := s.clock.Now()
	session.Status = domain.StatusComplete
	session.Completed = true
	session.SessionDate = &now
	session.DurationMinutes = summary.DurationMinutes
	session.Calories = summary.Calories
	return s.sessionRepo.Update(ctx, session)
}

// RecordProgression appends the event (source of truth) and mirrors the new
// target onto the embedded program document so the next session reads it
// without a fold. The mirror is last-write-wins; readers that need
// correctness under races use CurrentTarget.
func (s *sessionService) RecordProgression(ctx context.Context, event *domain.ProgressionEvent) error {
	if _, err := s.progressionRepo.Append(ctx, event); err != nil {
		return err
	}

	program, err := s.programRepo.GetByID(ctx, event.ProgramID)
	if err != nil {
		return err
	}
	slot := findSlot(program, event.SlotID)
	if slot == nil {
		return ErrSlotNotFound
	}
	updated := progression.FoldTargets(*slot, []domain.ProgressionEvent{*event})
	return s.programRepo.UpdateExerciseTarget(
		ctx, program.ID, event.SlotID, updated.RecommendedWeight, updated.RepsMin, updated.RepsMax)
}

func (s *sessionService) IsActive(sessionID primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[sessionID]
	return ok
}

func (s *sessionService) Release(sessionID primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sessionID)
}

func (s *sessionService) LogCardio(ctx context.Context, userID primitive.ObjectID, durationMinutes int, intensity calories.Intensity, notes string) (*domain.WorkoutSession, error) {
	if durationMinutes <= 0 {
		return nil, errors.New("cardio duration must be positive")
	}
	weightKg := 0.0
	if profile, err := s.profileRepo.GetByUserID(ctx, userID); err == nil {
		weightKg = profile.WeightKg
	}
	now := s.clock.Now()
	session := &domain.WorkoutSession{
		UserID:          userID,
		SessionType:     domain.SessionTypeWorkout,
		ScheduledDate:   s.clock.Today().String(),
		SessionDate:     &now,
		Status:          domain.StatusComplete,
		Completed:       true,
		DurationMinutes: durationMinutes,
		Calories:        s.estimator.CaloriesBurned(durationMinutes, weightKg, intensity),
		Notes:           notes,
	}
	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = id
	return session, nil
}

func (s *sessionService) CurrentTarget(ctx context.Context, programID, slotID primitive.ObjectID) (*domain.ProgramExercise, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveProgram
		}
		return nil, err
	}
	slot := findSlot(program, slotID)
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	events, err := s.progressionRepo.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	// Events carry absolute new targets, so folding them over the mirrored
	// document is idempotent: mirror writes that succeeded are replayed onto
	// themselves, mirror writes that were lost are recovered.
	current := progression.FoldTargets(*slot, events)
	return &current, nil
}

func findSlot(program *domain.Program, slotID primitive.ObjectID) *domain.ProgramExercise {
	for wi := range program.Workouts {
		for ei := range program.Workouts[wi].Exercises {
			if program.Workouts[wi].Exercises[ei].ID == slotID {
				return &program.Workouts[wi].Exercises[ei]
			}
		}
	}
	return nil
}
