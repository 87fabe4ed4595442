/*
Package calorie computes calorie and nutrition estimates for exercise and
diet reports. Every number comes from data tables: per-kilometre and
per-minute exercise rates, per-100g food nutrition, and multiplicative
cooking, portion and sauce coefficients.
*/
package calorie

import (
	"fmt"
	"math"

	"healthdaily/internal/record"
)

// exerciseRate carries the per-unit burn rates for one exercise type. A zero
// PerKm means the type is not distance-priced.
type exerciseRate struct {
	PerKm     float64
	PerMin    float64
	Estimated int
}

var exerciseRates = map[string]exerciseRate{
	"running":       {PerKm: 65, PerMin: 10, Estimated: 300},
	"walking":       {PerKm: 50, PerMin: 5, Estimated: 150},
	"cycling":       {PerKm: 35, PerMin: 8, Estimated: 200},
	"swimming":      {PerKm: 100, PerMin: 12, Estimated: 250},
	"rope_skipping": {PerMin: 15, Estimated: 200},
	"yoga":          {PerMin: 4, Estimated: 100},
	"gym":           {PerMin: 8, Estimated: 250},
	"badminton":     {PerMin: 10, Estimated: 180},
	"basketball":    {PerMin: 12, Estimated: 300},
	"football":      {PerMin: 12, Estimated: 350},
	"dancing":       {PerMin: 7, Estimated: 200},
	"climbing":      {PerKm: 80, PerMin: 9, Estimated: 300},
}

var defaultRate = exerciseRate{PerMin: 6, Estimated: 150}

// ExerciseEstimate is the result of one exercise calorie calculation.
type ExerciseEstimate struct {
	Calories    int
	Method      string
	Explanation string
}

// EstimateExercise picks the best available calculation: distance first for
// distance-priced types, duration second, fixed per-type estimate last.
func EstimateExercise(exerciseType string, distanceKm *float64, durationMin *int) ExerciseEstimate {
	rate, ok := exerciseRates[exerciseType]
	if !ok {
		rate = defaultRate
	}
	switch {
	case distanceKm != nil && rate.PerKm > 0:
		cal := int(math.Round(*distanceKm * rate.PerKm))
		return ExerciseEstimate{
			Calories:    cal,
			Method:      record.MethodByDistance,
			Explanation: fmt.Sprintf("%s %.1fkm × %.0f kcal/km", exerciseType, *distanceKm, rate.PerKm),
		}
	case durationMin != nil:
		cal := int(math.Round(float64(*durationMin) * rate.PerMin))
		return ExerciseEstimate{
			Calories:    cal,
			Method:      record.MethodByDuration,
			Explanation: fmt.Sprintf("%s %dmin × %.0f kcal/min", exerciseType, *durationMin, rate.PerMin),
		}
	default:
		return ExerciseEstimate{
			Calories:    rate.Estimated,
			Method:      record.MethodEstimated,
			Explanation: fmt.Sprintf("typical session of %s", exerciseType),
		}
	}
}
