package service

import (
	"context"
	"testing"

	"alcyxob/adaptive-fitness/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProfileSaveValidation(t *testing.T) {
	valid := func() *domain.UserProfile {
		return &domain.UserProfile{
			UserID:       primitive.NewObjectID(),
			WeightKg:     80,
			Unit:         domain.UnitPounds,
			DaysPerWeek:  3,
			SelectedDays: []int{1, 3, 5},
		}
	}

	tests := []struct {
		name   string
		mutate func(*domain.UserProfile)
	}{
		{"zero bodyweight", func(p *domain.UserProfile) { p.WeightKg = 0 }},
		{"unknown unit", func(p *domain.UserProfile) { p.Unit = "stone" }},
		{"zero days per week", func(p *domain.UserProfile) { p.DaysPerWeek = 0 }},
		{"eight days per week", func(p *domain.UserProfile) { p.DaysPerWeek = 8 }},
		{"day count mismatch", func(p *domain.UserProfile) { p.SelectedDays = []int{1} }},
		{"weekday out of range", func(p *domain.UserProfile) { p.SelectedDays = []int{1, 3, 8} }},
	}
	svc := NewProfileService(newFakeProfileRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			assert.ErrorIs(t, svc.Save(context.Background(), p), ErrInvalidProfile)
		})
	}
}

func TestProfileSavePreservesLifetimeCounters(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)
	userID := primitive.NewObjectID()

	first := &domain.UserProfile{
		UserID: userID, WeightKg: 80, Unit: domain.UnitPounds,
		DaysPerWeek: 3, SelectedDays: []int{1, 3, 5},
	}
	require.NoError(t, svc.Save(ctx, first))
	assert.Equal(t, 1, repo.profiles[userID].CycleNumber)

	// Simulate accumulated history, then a settings update.
	repo.profiles[userID].CycleNumber = 4
	repo.profiles[userID].TotalWorkoutsCompleted = 11

	update := &domain.UserProfile{
		UserID: userID, WeightKg: 82, Unit: domain.UnitKilograms,
		DaysPerWeek: 2, SelectedDays: []int{2, 6},
	}
	require.NoError(t, svc.Save(ctx, update))

	stored, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 82.0, stored.WeightKg)
	assert.Equal(t, domain.UnitKilograms, stored.Unit)
	assert.Equal(t, 4, stored.CycleNumber)
	assert.Equal(t, 11, stored.TotalWorkoutsCompleted)
}

func TestProfileGetMissing(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepo())
	_, err := svc.Get(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
