package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/generator"
	"alcyxob/adaptive-fitness/internal/repository"
	"alcyxob/adaptive-fitness/internal/schedule"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCycleNotClosed   = errors.New("current cycle is not closed yet")
	ErrGenerationFailed = errors.New("program generation failed")
)

// CycleService tracks 7-day cycle completion on the active program and
// drives the two ways out of a closed cycle: repeating the same program for
// another week, or generating a new one.
type CycleService interface {
	// Evaluate computes the current cycle status. When the status says the
	// completion prompt should be shown, the prompt marker is persisted in
	// the same call, so polling Evaluate again returns ShouldPrompt=false
	// until the next cycle closes.
	Evaluate(ctx context.Context, userID primitive.ObjectID) (*schedule.CycleStatus, error)
	// RepeatCycle archives the closed cycle's sessions, advances the anchor
	// one week and materializes the same program again. Fails with
	// ErrCycleNotClosed while any session of the cycle is unresolved.
	RepeatCycle(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// StartNewProgram closes out the current program, asks the generator for
	// a fresh one and materializes its first cycle anchored today.
	StartNewProgram(ctx context.Context, userID primitive.ObjectID, template string) (*domain.Program, error)
}

type cycleService struct {
	programRepo repository.ProgramRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	generator   generator.ProgramGenerator
	guard       ActiveSessionGuard
	clock       dates.Clock
	log         *logrus.Entry
}

// NewCycleService creates a new cycleService.
func NewCycleService(
	programRepo repository.ProgramRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	gen generator.ProgramGenerator,
	guard ActiveSessionGuard,
	clock dates.Clock,
) CycleService {
	return &cycleService{
		programRepo: programRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		generator:   gen,
		guard:       guard,
		clock:       clock,
		log:         logrus.WithField("component", "cycle_service"),
	}
}

func (s *cycleService) loadContext(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, *domain.Program, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProfileNotFound
		}
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	program, err := s.programRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNoActiveProgram
		}
		return nil, nil, fmt.Errorf("failed to load active program: %w", err)
	}
	return profile, program, nil
}

// cycleSessions gathers every session the cycle evaluation needs to see:
// archived history inside the window plus every live session at or past the
// anchor (reconciliation may have pushed some beyond the window edge).
func (s *cycleService) cycleSessions(ctx context.Context, program *domain.Program) ([]domain.WorkoutSession, error) {
	anchor := program.Anchor()
	windowEnd := anchor.AddDays(schedule.CycleDays - 1)

	inWindow, err := s.sessionRepo.GetByProgramAndDateRange(ctx, program.ID, anchor.String(), windowEnd.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load cycle window sessions: %w", err)
	}
	live, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program sessions: %w", err)
	}

	seen := make(map[primitive.ObjectID]struct{}, len(inWindow))
	merged := make([]domain.WorkoutSession, 0, len(inWindow)+len(live))
	for _, sess := range inWindow {
		seen[sess.ID] = struct{}{}
		merged = append(merged, sess)
	}
	for _, sess := range live {
		if _, ok := seen[sess.ID]; ok {
			continue
		}
		merged = append(merged, sess)
	}
	return merged, nil
}

func (s *cycleService) Evaluate(ctx context.Context, userID primitive.ObjectID) (*schedule.CycleStatus, error) {
	profile, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.cycleSessions(ctx, program)
	if err != nil {
		return nil, err
	}

	status := schedule.EvaluateCycle(program, profile, sessions, s.clock.Today())
	if status.ShouldPrompt {
		// Persist the marker before returning so a second poll does not
		// fire the prompt again.
		if err := s.programRepo.SetPromptedCycle(ctx, program.ID, profile.CycleNumber); err != nil {
			return nil, fmt.Errorf("failed to record cycle prompt: %w", err)
		}
	}
	return &status, nil
}

func (s *cycleService) RepeatCycle(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	profile, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.cycleSessions(ctx, program)
	if err != nil {
		return nil, err
	}

	status := schedule.EvaluateCycle(program, profile, sessions, s.clock.Today())
	if !status.Closed {
		return nil, ErrCycleNotClosed
	}

	// Archive everything still live before writing the new week; a shifted
	// tail session left behind would collide with the fresh calendar.
	live, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for archival: %w", err)
	}
	for _, sess := range live {
		if s.guard.IsActive(sess.ID) {
			s.log.WithField("sessionId", sess.ID.Hex()).Warn("skipping archival of live session")
			continue
		}
		if err := s.sessionRepo.Archive(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("failed to archive session %s: %w", sess.ID.Hex(), err)
		}
	}

	if err := s.profileRepo.CloseCycle(ctx, userID, status.CompletedWorkouts); err != nil {
		return nil, fmt.Errorf("failed to close cycle: %w", err)
	}

	newAnchor := program.Anchor().AddDays(schedule.CycleDays)
	if err := s.programRepo.UpdateAnchor(ctx, program.ID, newAnchor.String()); err != nil {
		return nil, fmt.Errorf("failed to advance anchor: %w", err)
	}
	program.AnchorDate = newAnchor.String()

	next, err := schedule.BuildCycle(program, profile, newAnchor)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.CreateMany(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to materialize repeated cycle: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"programId": program.ID.Hex(),
		"anchor":    newAnchor.String(),
		"completed": status.CompletedWorkouts,
	}).Info("cycle repeated")
	return next, nil
}

func (s *cycleService) StartNewProgram(ctx context.Context, userID primitive.ObjectID, template string) (*domain.Program, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	// Fold the outgoing cycle's completions into the lifetime total before
	// the switch. A user without an active program just starts fresh.
	var completed int
	old, err := s.programRepo.GetActiveByUserID(ctx, userID)
	switch {
	case err == nil:
		sessions, serr := s.cycleSessions(ctx, old)
		if serr != nil {
			return nil, serr
		}
		status := schedule.EvaluateCycle(old, profile, sessions, s.clock.Today())
		completed = status.CompletedWorkouts
		for _, sess := range sessions {
			if sess.Status == domain.StatusArchived || s.guard.IsActive(sess.ID) {
				continue
			}
			if aerr := s.sessionRepo.Archive(ctx, sess.ID); aerr != nil {
				return nil, fmt.Errorf("failed to archive session %s: %w", sess.ID.Hex(), aerr)
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		// First program ever.
	default:
		return nil, fmt.Errorf("failed to load active program: %w", err)
	}

	generated, err := s.generator.GenerateProgram(ctx, profile, template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	today := s.clock.Today()
	program := &domain.Program{
		UserID:        userID,
		Name:          generated.Name,
		DurationWeeks: generated.DurationWeeks,
		AnchorDate:    today.String(),
		IsActive:      true,
		Workouts:      generated.Workouts,
	}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	program, err = s.programRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload created program: %w", err)
	}
	if err := s.programRepo.SetActive(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("failed to activate program: %w", err)
	}

	if old != nil {
		if err := s.profileRepo.CloseCycle(ctx, userID, completed); err != nil {
			return nil, fmt.Errorf("failed to close cycle: %w", err)
		}
	}

	first, err := schedule.BuildCycle(program, profile, today)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.CreateMany(ctx, first); err != nil {
		return nil, fmt.Errorf("failed to materialize first cycle: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"programId": id.Hex(),
		"name":      program.Name,
		"anchor":    today.String(),
	}).Info("new program started")
	return program, nil
}
