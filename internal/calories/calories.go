// Package calories provides the calorie-estimation collaborator. The engine
// only depends on the Estimator interface; the MET-table implementation here
// is the app's default.
package calories

// Intensity level of a finished session.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Estimator computes calories burned for a finished session. Pure function
// of duration, body weight and intensity.
type Estimator interface {
	CaloriesBurned(durationMinutes int, weightKg float64, intensity Intensity) int
}

// MET values for resistance training by intensity. Standard compendium
// numbers: light effort 3.5, moderate 5.0, vigorous/circuit 8.0.
var metByIntensity = map[Intensity]float64{
	IntensityLow:      3.5,
	IntensityModerate: 5.0,
	IntensityHigh:     8.0,
}

// METEstimator implements Estimator with the classic formula
// kcal = MET * 3.5 * weightKg / 200 * minutes.
type METEstimator struct{}

func NewMETEstimator() METEstimator {
	return METEstimator{}
}

func (METEstimator) CaloriesBurned(durationMinutes int, weightKg float64, intensity Intensity) int {
	if durationMinutes <= 0 || weightKg <= 0 {
		return 0
	}
	met, ok := metByIntensity[intensity]
	if !ok {
		met = metByIntensity[IntensityModerate]
	}
	kcal := met * 3.5 * weightKg / 200 * float64(durationMinutes)
	return int(kcal + 0.5)
}
