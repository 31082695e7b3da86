package service

import (
	"context"
	"sort"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the repository interfaces. They mimic the mongo
// implementations' observable behavior (ErrNotFound, date-ordered reads,
// status-guarded conditional writes) without a database.

type fakeProgramRepo struct {
	programs map[primitive.ObjectID]*domain.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: map[primitive.ObjectID]*domain.Program{}}
}

func (r *fakeProgramRepo) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	program.ID = primitive.NewObjectID()
	for wi := range program.Workouts {
		if program.Workouts[wi].ID == primitive.NilObjectID {
			program.Workouts[wi].ID = primitive.NewObjectID()
		}
		for ei := range program.Workouts[wi].Exercises {
			if program.Workouts[wi].Exercises[ei].ID == primitive.NilObjectID {
				program.Workouts[wi].Exercises[ei].ID = primitive.NewObjectID()
			}
		}
	}
	cp := *program
	r.programs[program.ID] = &cp
	return program.ID, nil
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProgramRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Program, error) {
	for _, p := range r.programs {
		if p.UserID == userID && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProgramRepo) ListActive(_ context.Context) ([]domain.Program, error) {
	var out []domain.Program
	for _, p := range r.programs {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) SetActive(_ context.Context, userID, programID primitive.ObjectID) error {
	for _, p := range r.programs {
		if p.UserID == userID {
			p.IsActive = p.ID == programID
		}
	}
	if _, ok := r.programs[programID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *fakeProgramRepo) UpdateAnchor(_ context.Context, programID primitive.ObjectID, anchorDate string) error {
	p, ok := r.programs[programID]
	if !ok {
		return repository.ErrNotFound
	}
	p.AnchorDate = anchorDate
	return nil
}

func (r *fakeProgramRepo) SetPromptedCycle(_ context.Context, programID primitive.ObjectID, cycle int) error {
	p, ok := r.programs[programID]
	if !ok {
		return repository.ErrNotFound
	}
	if cycle > p.PromptedCycle {
		p.PromptedCycle = cycle
	}
	return nil
}

func (r *fakeProgramRepo) UpdateExerciseTarget(_ context.Context, programID, slotID primitive.ObjectID, weight *float64, repsMin, repsMax int) error {
	p, ok := r.programs[programID]
	if !ok {
		return repository.ErrNotFound
	}
	for wi := range p.Workouts {
		for ei := range p.Workouts[wi].Exercises {
			if p.Workouts[wi].Exercises[ei].ID == slotID {
				p.Workouts[wi].Exercises[ei].RecommendedWeight = weight
				p.Workouts[wi].Exercises[ei].RepsMin = repsMin
				p.Workouts[wi].Exercises[ei].RepsMax = repsMax
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.WorkoutSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[primitive.ObjectID]*domain.WorkoutSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	cp := *session
	r.sessions[session.ID] = &cp
	return session.ID, nil
}

func (r *fakeSessionRepo) CreateMany(ctx context.Context, sessions []domain.WorkoutSession) error {
	for i := range sessions {
		if _, err := r.Create(ctx, &sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.ProgramID == programID && s.Status != domain.StatusArchived {
			out = append(out, *s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (r *fakeSessionRepo) GetByProgramAndDateRange(_ context.Context, programID primitive.ObjectID, from, to string) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.ProgramID == programID && s.ScheduledDate >= from && s.ScheduledDate <= to {
			out = append(out, *s)
		}
	}
	sortSessions(out)
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *domain.WorkoutSession) error {
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) RescheduleIfActive(_ context.Context, id primitive.ObjectID, newDate string) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status.IsTerminal() {
		return false, nil
	}
	s.ScheduledDate = newDate
	return true, nil
}

func (r *fakeSessionRepo) MarkSkippedIfActive(_ context.Context, id primitive.ObjectID) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status.IsTerminal() {
		return false, nil
	}
	s.Status = domain.StatusSkipped
	return true, nil
}

func (r *fakeSessionRepo) Archive(_ context.Context, id primitive.ObjectID) error {
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = domain.StatusArchived
	return nil
}

func sortSessions(sessions []domain.WorkoutSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ScheduledDate < sessions[j].ScheduledDate
	})
}

type fakeProfileRepo struct {
	profiles map[primitive.ObjectID]*domain.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[primitive.ObjectID]*domain.UserProfile{}}
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) Upsert(_ context.Context, profile *domain.UserProfile) error {
	existing, ok := r.profiles[profile.UserID]
	cp := *profile
	if ok {
		cp.CycleNumber = existing.CycleNumber
		cp.TotalWorkoutsCompleted = existing.TotalWorkoutsCompleted
	} else {
		cp.CycleNumber = 1
	}
	r.profiles[profile.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) CloseCycle(_ context.Context, userID primitive.ObjectID, workoutsCompleted int) error {
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CycleNumber++
	p.TotalWorkoutsCompleted += workoutsCompleted
	return nil
}

type fakeProgressionRepo struct {
	events []domain.ProgressionEvent
}

func (r *fakeProgressionRepo) Append(_ context.Context, event *domain.ProgressionEvent) (primitive.ObjectID, error) {
	event.ID = primitive.NewObjectID()
	r.events = append(r.events, *event)
	return event.ID, nil
}

func (r *fakeProgressionRepo) ListBySlot(_ context.Context, slotID primitive.ObjectID) ([]domain.ProgressionEvent, error) {
	var out []domain.ProgressionEvent
	for _, ev := range r.events {
		if ev.SlotID == slotID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// noGuard is an ActiveSessionGuard with nothing live.
type noGuard struct{}

func (noGuard) IsActive(primitive.ObjectID) bool { return false }

// staticGuard marks a fixed set of sessions as live.
type staticGuard map[primitive.ObjectID]struct{}

func (g staticGuard) IsActive(id primitive.ObjectID) bool {
	_, ok := g[id]
	return ok
}
