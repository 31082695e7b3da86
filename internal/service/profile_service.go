package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidProfile = errors.New("invalid profile")

// ProfileService manages the user's training profile: bodyweight, preferred
// unit, available equipment and the weekly training pattern.
type ProfileService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	// Save upserts the profile. Lifetime counters (cycle number, total
	// workouts) are never written through this path.
	Save(ctx context.Context, profile *domain.UserProfile) error
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new profileService.
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Save(ctx context.Context, profile *domain.UserProfile) error {
	if profile.WeightKg <= 0 {
		return fmt.Errorf("%w: bodyweight must be positive", ErrInvalidProfile)
	}
	if profile.Unit != domain.UnitPounds && profile.Unit != domain.UnitKilograms {
		return fmt.Errorf("%w: unknown weight unit %q", ErrInvalidProfile, profile.Unit)
	}
	if profile.DaysPerWeek <= 0 || profile.DaysPerWeek > 7 {
		return fmt.Errorf("%w: daysPerWeek must be 1-7, got %d", ErrInvalidProfile, profile.DaysPerWeek)
	}
	if len(profile.SelectedDays) != profile.DaysPerWeek {
		return fmt.Errorf("%w: %d selected days for %d days per week",
			ErrInvalidProfile, len(profile.SelectedDays), profile.DaysPerWeek)
	}
	for _, d := range profile.SelectedDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidProfile, d)
		}
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
