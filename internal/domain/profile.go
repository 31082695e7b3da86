package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeightUnit is the user's display preference. Internally every weight is
// pounds; conversion happens at the API boundary.
type WeightUnit string

const (
	UnitPounds    WeightUnit = "lbs"
	UnitKilograms WeightUnit = "kg"
)

const lbsPerKg = 2.2046226218

// LbsToKg converts pounds to kilograms for display.
func LbsToKg(lbs float64) float64 {
	return lbs / lbsPerKg
}

// KgToLbs converts kilograms to the canonical internal unit.
func KgToLbs(kg float64) float64 {
	return kg * lbsPerKg
}

// UserProfile holds the scheduling preferences and lifetime counters for one
// user. CycleNumber is monotonically non-decreasing; it is never reset
// except by an explicit account reset.
type UserProfile struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	WeightKg float64            `bson:"weightKg" json:"weightKg"`
	Unit     WeightUnit         `bson:"unit" json:"unit"`
	// Equipment available to the user, e.g. "dumbbells", "barbell".
	Equipment   []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	DaysPerWeek int      `bson:"daysPerWeek" json:"daysPerWeek"`
	// SelectedDays are ordinal weekdays 1 (Mon) - 7 (Sun) the user trains on.
	// len(SelectedDays) must equal DaysPerWeek.
	SelectedDays           []int     `bson:"selectedDays" json:"selectedDays"`
	CycleNumber            int       `bson:"cycleNumber" json:"cycleNumber"`
	TotalWorkoutsCompleted int       `bson:"totalWorkoutsCompleted" json:"totalWorkoutsCompleted"`
	CreatedAt              time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TrainsOn reports whether the given ordinal weekday (1-7) is a selected
// training day.
func (p *UserProfile) TrainsOn(weekday int) bool {
	for _, d := range p.SelectedDays {
		if d == weekday {
			return true
		}
	}
	return false
}
