package service

import (
	"context"
	"errors"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/repository"
	"alcyxob/adaptive-fitness/internal/schedule"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoActiveProgram  = errors.New("no active program for user")
	ErrProfileNotFound  = errors.New("user profile not found")
	ErrScheduleNotEmpty = errors.New("cycle already materialized for this window")
)

// ActiveSessionGuard reports whether a session is currently being driven by
// a live sequencer. Reconciliation and live-session mutation are mutually
// exclusive phases keyed by session id: the sweep skips anything active.
type ActiveSessionGuard interface {
	IsActive(sessionID primitive.ObjectID) bool
}

// ReconcileReport summarizes one load-time sweep.
type ReconcileReport struct {
	RestCompleted int `json:"restCompleted"`
	Archived      int `json:"archived"`
	Rescheduled   int `json:"rescheduled"`
	// Conflicts counts sessions the planner wanted to touch that reached a
	// terminal state (or went live) between scan and write; they are left
	// alone and picked up next sweep if still relevant.
	Conflicts int `json:"conflicts"`
}

// ScheduleService owns the rolling calendar: materializing cycles and the
// load-time reconcile/archive sweep.
type ScheduleService interface {
	// MaterializeCycle creates the 7 dated sessions of the current cycle
	// from the active program's anchor. Validation runs before any write, so
	// a configuration error never leaves a partial calendar behind.
	MaterializeCycle(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// Schedule returns the active program's non-archived sessions in date
	// order.
	Schedule(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// MissedWorkouts reports missed sessions relative to the injected
	// clock's local calendar day.
	MissedWorkouts(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error)
	// ReconcileOnLoad runs the cleanup pass (due rest days, archival) and the
	// auto-reschedule policy. Safe to invoke on every app load; with no new
	// misses it is a no-op.
	ReconcileOnLoad(ctx context.Context, userID primitive.ObjectID) (*ReconcileReport, error)
	// SkipMissed applies the explicit legacy policy instead: missed sessions
	// are marked skipped, future dates stay untouched.
	SkipMissed(ctx context.Context, userID primitive.ObjectID) (int, error)
	// NightlySweep runs the reconcile pass over every active program, so
	// schedules stay clean even for users who have not opened the app.
	NightlySweep(ctx context.Context)
}

type scheduleService struct {
	programRepo repository.ProgramRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	guard       ActiveSessionGuard
	clock       dates.Clock
	log         *logrus.Entry
}

// NewScheduleService creates a new scheduleService.
func NewScheduleService(
	programRepo repository.ProgramRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	guard ActiveSessionGuard,
	clock dates.Clock,
) ScheduleService {
	return &scheduleService{
		programRepo: programRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		guard:       guard,
		clock:       clock,
		log:         logrus.WithField("service", "schedule"),
	}
}

// loadContext fetches the profile and active program for a user.
func (s *scheduleService) loadContext(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, *domain.Program, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProfileNotFound
		}
		return nil, nil, err
	}
	program, err := s.programRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNoActiveProgram
		}
		return nil, nil, err
	}
	return profile, program, nil
}

func (s *scheduleService) MaterializeCycle(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	profile, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	anchor := program.Anchor()
	if anchor.IsZero() {
		// Fresh program: anchor the first cycle at today, in the user's
		// local calendar, never a UTC-shifted date.
		anchor = s.clock.Today()
		if err := s.programRepo.UpdateAnchor(ctx, program.ID, anchor.String()); err != nil {
			return nil, err
		}
	}

	existing, err := s.sessionRepo.GetByProgramAndDateRange(
		ctx, program.ID, anchor.String(), anchor.AddDays(schedule.CycleDays-1).String())
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrScheduleNotEmpty
	}

	sessions, err := schedule.BuildCycle(program, profile, anchor)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.CreateMany(ctx, sessions); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"userId": userID.Hex(),
		"anchor": anchor.String(),
	}).Info("cycle materialized")
	return sessions, nil
}

func (s *scheduleService) Schedule(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	_, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByProgramID(ctx, program.ID)
}

func (s *scheduleService) MissedWorkouts(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	_, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	return schedule.Missed(sessions, s.clock.Today()), nil
}

func (s *scheduleService) ReconcileOnLoad(ctx context.Context, userID primitive.ObjectID) (*ReconcileReport, error) {
	_, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	report := &ReconcileReport{}

	sessions, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}

	// Cleanup first: a rest day needs no user action, so once its date has
	// passed it completes and archives. Completed/skipped history archives
	// too. Running cleanup before the reschedule plan keeps shifted dates
	// from landing on lingering terminal sessions.
	now := s.clock.Now()
	for _, rest := range schedule.DueRestDays(sessions, today) {
		rest.Status = domain.StatusComplete
		rest.Completed = true
		t := now
		rest.SessionDate = &t
		if err := s.sessionRepo.Update(ctx, &rest); err != nil {
			s.log.WithError(err).WithField("sessionId", rest.ID.Hex()).
				Warn("failed to complete due rest day")
			continue
		}
		report.RestCompleted++
	}

	// Refresh after the rest-day pass so archival sees the new statuses.
	sessions, err = s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	for _, past := range schedule.Archivable(sessions, today) {
		if s.guard.IsActive(past.ID) {
			report.Conflicts++
			continue
		}
		if err := s.sessionRepo.Archive(ctx, past.ID); err != nil {
			s.log.WithError(err).WithField("sessionId", past.ID.Hex()).
				Warn("failed to archive past session")
			continue
		}
		report.Archived++
	}

	// Auto-reschedule: shift the whole pending tail forward by the miss gap.
	// The plan is re-derived from current state, so re-running with no new
	// misses changes nothing; the conditional write skips any session that
	// turned terminal since the scan.
	sessions, err = s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	for _, move := range schedule.PlanReschedule(sessions, today) {
		if s.guard.IsActive(move.SessionID) {
			report.Conflicts++
			continue
		}
		moved, err := s.sessionRepo.RescheduleIfActive(ctx, move.SessionID, move.To.String())
		if err != nil {
			return nil, err
		}
		if !moved {
			report.Conflicts++
			continue
		}
		report.Rescheduled++
	}

	if report.Rescheduled > 0 || report.Archived > 0 {
		s.log.WithFields(logrus.Fields{
			"userId":      userID.Hex(),
			"rescheduled": report.Rescheduled,
			"archived":    report.Archived,
			"conflicts":   report.Conflicts,
		}).Info("schedule reconciled")
	}
	return report, nil
}

func (s *scheduleService) SkipMissed(ctx context.Context, userID primitive.ObjectID) (int, error) {
	_, program, err := s.loadContext(ctx, userID)
	if err != nil {
		return 0, err
	}
	sessions, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return 0, err
	}
	skipped := 0
	for _, id := range schedule.SkipTargets(sessions, s.clock.Today()) {
		if s.guard.IsActive(id) {
			continue
		}
		ok, err := s.sessionRepo.MarkSkippedIfActive(ctx, id)
		if err != nil {
			return skipped, err
		}
		if ok {
			skipped++
		}
	}
	return skipped, nil
}

// NightlySweep reconciles every active program. Errors are logged per user
// and never stop the sweep.
func (s *scheduleService) NightlySweep(ctx context.Context) {
	programs, err := s.programRepo.ListActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("nightly sweep: failed to list active programs")
		return
	}
	for _, program := range programs {
		if _, err := s.ReconcileOnLoad(ctx, program.UserID); err != nil {
			s.log.WithError(err).WithField("userId", program.UserID.Hex()).
				Warn("nightly sweep: reconcile failed")
		}
	}
	s.log.WithField("programs", len(programs)).Info("nightly sweep finished")
}
