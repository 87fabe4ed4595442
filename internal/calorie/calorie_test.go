package calorie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatp(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func TestEstimateExerciseByDistance(t *testing.T) {
	e := EstimateExercise("running", floatp(5), nil)
	assert.Equal(t, 325, e.Calories)
	assert.Equal(t, "by-distance", e.Method)
}

func TestEstimateExercisePrefersDistance(t *testing.T) {
	e := EstimateExercise("running", floatp(5), intp(30))
	assert.Equal(t, 325, e.Calories)
	assert.Equal(t, "by-distance", e.Method)
}

func TestEstimateExerciseByDuration(t *testing.T) {
	e := EstimateExercise("yoga", nil, intp(45))
	assert.Equal(t, 180, e.Calories)
	assert.Equal(t, "by-duration", e.Method)

	// Distance on a duration-only type falls through to duration.
	e = EstimateExercise("rope_skipping", floatp(2), intp(10))
	assert.Equal(t, 150, e.Calories)
	assert.Equal(t, "by-duration", e.Method)
}

func TestEstimateExerciseFallback(t *testing.T) {
	e := EstimateExercise("running", nil, nil)
	assert.Equal(t, 300, e.Calories)
	assert.Equal(t, "estimated", e.Method)

	e = EstimateExercise("unheard-of", nil, nil)
	assert.Equal(t, 150, e.Calories)
	assert.Equal(t, "estimated", e.Method)
}

func TestEstimateDietBaseTable(t *testing.T) {
	n := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "米饭", EstimatedWeightG: 200, CookingMethod: "蒸"}},
		PortionSize:  "中",
		SauceLevel:   "正常",
		ClarityScore: 4,
	})
	// 116 kcal/100g × 200g × 1.0 cooking
	assert.Equal(t, 232, n.TotalCalories)
	assert.Equal(t, "209-255", n.CalorieRange)
	assert.Equal(t, "high", n.Accuracy)
	require.Len(t, n.Items, 1)
	assert.Equal(t, "base-table", n.Items[0].Source)
	assert.Equal(t, 5.2, n.ProteinG)
}

func TestEstimateDietCookingCoefficient(t *testing.T) {
	steamed := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "鸡胸肉", EstimatedWeightG: 100, CookingMethod: "蒸"}},
		ClarityScore: 4,
	})
	fried := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "鸡胸肉", EstimatedWeightG: 100, CookingMethod: "油炸"}},
		ClarityScore: 4,
	})
	assert.Equal(t, 165, steamed.TotalCalories)
	assert.Equal(t, 330, fried.TotalCalories)
	// Cooking scales calories only, not macros.
	assert.Equal(t, steamed.ProteinG, fried.ProteinG)
}

func TestEstimateDietPortionAndSauce(t *testing.T) {
	large := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "米饭", EstimatedWeightG: 100, CookingMethod: "蒸"}},
		PortionSize:  "大",
		SauceLevel:   "多",
		ClarityScore: 3,
	})
	// 116 × 1.3 portion × 1.2 sauce = 181
	assert.Equal(t, 181, large.TotalCalories)
	// Sauce applies to fat, not protein or carbs.
	assert.Equal(t, 3.4, large.ProteinG)  // 2.6 × 1.3
	assert.Equal(t, 0.5, large.FatG)      // 0.3 × 1.3 × 1.2
	assert.Equal(t, 33.7, large.CarbsG)   // 25.9 × 1.3
	assert.Equal(t, "medium", large.Accuracy)
}

func TestEstimateDietRestaurantLookup(t *testing.T) {
	n := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "麦当劳巨无霸"}},
		ClarityScore: 5,
	})
	assert.Equal(t, 540, n.TotalCalories)
	require.Len(t, n.Items, 1)
	assert.Equal(t, "dish-lookup", n.Items[0].Source)
	// 15/50/35 macro split by calories.
	assert.Equal(t, 20.3, n.Items[0].ProteinG)
	assert.Equal(t, 67.5, n.Items[0].CarbsG)
	assert.Equal(t, 21.0, n.Items[0].FatG)
}

func TestEstimateDietHomestyleDishNeedsNoVendor(t *testing.T) {
	n := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "番茄炒蛋"}},
		ClarityScore: 4,
	})
	assert.Equal(t, 180, n.TotalCalories)
	assert.Equal(t, "dish-lookup", n.Items[0].Source)
}

func TestEstimateDietFallbacks(t *testing.T) {
	// Unknown name with a keyword hint resolves via the hint table.
	n := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "蛋炒年糕", EstimatedWeightG: 100, CookingMethod: "蒸"}},
		ClarityScore: 2,
	})
	assert.Equal(t, 155, n.TotalCalories) // 鸡蛋 per-100g
	assert.Equal(t, "low", n.Accuracy)

	// Completely unknown name takes the default nutrition row and the
	// default cooking coefficient.
	d := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "神秘料理", EstimatedWeightG: 100, CookingMethod: "魔法"}},
		ClarityScore: 1,
	})
	assert.Equal(t, 120, d.TotalCalories) // 100 × 1.2
}

func TestEstimateDietDefaultsWeightAndCooking(t *testing.T) {
	n := EstimateDiet(FoodAnalysis{
		FoodItems:    []FoodItem{{Name: "米饭"}},
		ClarityScore: 3,
	})
	// 100g default × 炒 default 1.5
	assert.Equal(t, 174, n.TotalCalories)
}
