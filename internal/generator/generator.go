// Package generator defines the program-generation collaborator. Actual
// generation (AI-driven exercise selection) lives outside this engine; the
// engine only consumes the structured program that comes back.
package generator

import (
	"context"

	"alcyxob/adaptive-fitness/internal/domain"
)

// GeneratedProgram is the structured result of a generation call.
type GeneratedProgram struct {
	Name            string
	DurationWeeks   int
	WeeklyStructure string
	Workouts        []domain.ProgramWorkout
}

// ProgramGenerator produces a new multi-week program for a user profile.
type ProgramGenerator interface {
	GenerateProgram(ctx context.Context, profile *domain.UserProfile, template string) (*GeneratedProgram, error)
}

// StaticGenerator returns a fixed program; used in tests and as a stand-in
// until a real generator backend is wired.
type StaticGenerator struct {
	Program GeneratedProgram
}

func (g *StaticGenerator) GenerateProgram(_ context.Context, _ *domain.UserProfile, _ string) (*GeneratedProgram, error) {
	p := g.Program
	return &p, nil
}
