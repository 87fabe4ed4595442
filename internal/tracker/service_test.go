package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthdaily/internal/calorie"
	"healthdaily/internal/clarify"
	"healthdaily/internal/record"
)

type fakeAnalyzer struct {
	analysis  calorie.FoodAnalysis
	lastInput string
}

func (f *fakeAnalyzer) AnalyzeFood(ctx context.Context, foodInput string) calorie.FoodAnalysis {
	f.lastInput = foodInput
	return f.analysis
}

type fakePlanner struct {
	plan        record.DailyPlan
	calls       int
	lastHistory string
}

func (f *fakePlanner) GeneratePlan(ctx context.Context, rec *record.DailyRecord, history string) record.DailyPlan {
	f.calls++
	f.lastHistory = history
	return f.plan
}

type noopNotifier struct{}

func (noopNotifier) RecordUpdated(userID, date string) {}

func newTestService(t *testing.T) (*Service, *fakeAnalyzer, *fakePlanner, func(time.Time)) {
	t.Helper()
	store, err := record.NewFileStore(t.TempDir())
	require.NoError(t, err)
	analyzer := &fakeAnalyzer{analysis: calorie.FoodAnalysis{
		FoodItems:    []calorie.FoodItem{{Name: "米饭", EstimatedWeightG: 200, CookingMethod: "蒸"}},
		PortionSize:  "中",
		SauceLevel:   "正常",
		ClarityScore: 4,
	}}
	planner := &fakePlanner{plan: record.DailyPlan{
		FoodItems:     []string{"早餐：燕麦粥"},
		MovementItems: []string{"散步30分钟"},
	}}
	svc := New(store, analyzer, planner, noopNotifier{})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }
	setNow := func(tm time.Time) { now = tm }
	return svc, analyzer, planner, setNow
}

func TestRecordMealLabels(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.RecordMeal(ctx, "u1", "lunch", "吃了牛肉面")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "eaten", res.StatusLabel)
	assert.Equal(t, "lunch", res.MealSlot)

	res, err = svc.RecordMeal(ctx, "u1", "lunch", "又吃了个苹果")
	require.NoError(t, err)
	assert.Equal(t, "eaten ×2", res.StatusLabel)
	assert.Contains(t, res.CompletedSlots, "lunch")
}

func TestRecordMealDetectsSlot(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.RecordMeal(context.Background(), "u1", "", "早餐吃了包子")
	require.NoError(t, err)
	assert.Equal(t, "breakfast", res.MealSlot)
}

func TestRecordExerciseCompleteInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.RecordExercise(context.Background(), "u1", "今天跑了5公里", "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.NeedsClarification)
	assert.Equal(t, "running", res.ExerciseType)
	assert.Equal(t, "done", res.StatusLabel)
	assert.Equal(t, 325, res.CaloriesBurned)
	assert.Equal(t, record.MethodByDistance, res.CalculationMethod)
}

func TestRecordExerciseFollowupFlow(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.RecordExercise(ctx, "u1", "我今天去跑步了", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.NeedsClarification)
	require.NotEmpty(t, res.Questions)

	res, err = svc.RecordExercise(ctx, "u1", "大概5公里左右", "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "running", res.ExerciseType)
	assert.Equal(t, 325, res.CaloriesBurned)

	rec, err := svc.GetRecord(ctx, "u1", "today")
	require.NoError(t, err)
	require.Len(t, rec.Exercise.Entries, 1)
	assert.Contains(t, rec.Exercise.Entries[0].Description, clarify.FollowupSeparator)
}

func TestEstimateExerciseCaloriesByIndex(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordExercise(ctx, "u1", "跑了5公里", "")
	require.NoError(t, err)

	res, err := svc.EstimateExerciseCalories(ctx, "u1", "做了45分钟瑜伽", "", 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 180, res.CaloriesBurned)

	res, err = svc.EstimateExerciseCalories(ctx, "u1", "游泳1公里", "", 5)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.NeedsClarification)
}

func TestEstimateDietCalories(t *testing.T) {
	svc, analyzer, _, _ := newTestService(t)

	res, err := svc.EstimateDietCalories(context.Background(), "u1", "吃了一份蒸米饭", "lunch")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.NeedsClarification)
	assert.InDelta(t, 232.0, res.Nutrition.TotalCalories, 0.5)
	assert.Equal(t, "吃了一份蒸米饭", analyzer.lastInput)

	rec, err := svc.GetRecord(context.Background(), "u1", "today")
	require.NoError(t, err)
	assert.Equal(t, "eaten", rec.MealSlots["lunch"].StatusLabel)
}

func TestEstimateDietClarificationDoesNotRecord(t *testing.T) {
	svc, analyzer, _, _ := newTestService(t)
	analyzer.analysis = calorie.FoodAnalysis{
		FoodItems:          []calorie.FoodItem{{Name: "外卖"}},
		ClarityScore:       1,
		NeedsClarification: true,
		Questions:          clarify.DietFallbackQuestions(),
	}

	res, err := svc.EstimateDietCalories(context.Background(), "u1", "随便吃了点", "dinner")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.NeedsClarification)
	assert.Len(t, res.Questions, 3)

	rec, err := svc.GetRecord(context.Background(), "u1", "today")
	require.NoError(t, err)
	assert.Empty(t, rec.MealSlots["dinner"].Entries)
}

func TestReportFactorAndDuplicate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.ReportNegativeFactor(ctx, "u1", "跑步时扭伤了脚踝")
	require.NoError(t, err)
	assert.True(t, res.Detected)
	assert.Equal(t, "injury", res.Type)
	assert.False(t, res.IsDuplicateOfActive)
	first := res.FactorID

	res, err = svc.ReportNegativeFactor(ctx, "u1", "脚踝扭伤还是很疼")
	require.NoError(t, err)
	assert.True(t, res.Detected)
	assert.True(t, res.IsDuplicateOfActive)
	assert.Equal(t, first, res.FactorID)

	rec, err := svc.GetRecord(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, rec.NegativeFactors.Factors, 1)
	assert.Equal(t, 2, rec.NegativeFactors.Factors[0].DurationDays)
}

func TestReportFactorNothingDetected(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.ReportNegativeFactor(context.Background(), "u1", "今天天气不错")
	require.NoError(t, err)
	assert.False(t, res.Detected)
}

func TestMarkRecoveredSelection(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.MarkFactorRecovered(ctx, "u1", "", "")
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = svc.ReportNegativeFactor(ctx, "u1", "感冒发烧了")
	require.NoError(t, err)

	res, err = svc.MarkFactorRecovered(ctx, "u1", "", "吃药好了")
	require.NoError(t, err)
	assert.True(t, res.Success)

	elig, err := svc.GetExerciseEligibility(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, elig.Eligible)
}

func TestRolloverCopiesOngoingFactors(t *testing.T) {
	svc, _, _, setNow := newTestService(t)
	ctx := context.Background()

	res, err := svc.ReportNegativeFactor(ctx, "u1", "膝盖受伤很严重")
	require.NoError(t, err)
	assert.Equal(t, "severe", res.Severity)

	elig, err := svc.GetExerciseEligibility(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, elig.Eligible)

	setNow(time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local))
	rec, err := svc.GetRecord(ctx, "u1", "today")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", rec.Date)
	require.Len(t, rec.NegativeFactors.Factors, 1)
	assert.Equal(t, 2, rec.NegativeFactors.Factors[0].DurationDays)

	// rereading the same day must not bump the counter again
	rec, err = svc.GetRecord(ctx, "u1", "today")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.NegativeFactors.Factors[0].DurationDays)
}

func TestHydration(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.AddCup(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentCups)
	assert.Equal(t, record.DefaultHydrationTarget, res.TargetCups)
	assert.False(t, res.GoalReached)

	res, err = svc.SetCups(ctx, "u1", 8)
	require.NoError(t, err)
	assert.True(t, res.GoalReached)

	res, err = svc.SetCups(ctx, "u1", -3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CurrentCups)
}

func TestGetPlanGeneratesOnce(t *testing.T) {
	svc, _, planner, _ := newTestService(t)
	ctx := context.Background()

	plan, err := svc.GetPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"早餐：燕麦粥"}, plan.FoodItems)
	assert.Equal(t, 1, planner.calls)

	_, err = svc.GetPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, planner.calls)

	_, err = svc.RegeneratePlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, planner.calls)
}

func TestPlanViews(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.GetPlanView(ctx, "u1", "all")
	require.NoError(t, err)
	require.NotNil(t, all.Plan)
	assert.Equal(t, []string{"早餐：燕麦粥"}, all.Plan.FoodItems)

	// fixed clock is noon, so the current meal is lunch (index 1); the fake
	// plan has a single item, which falls back to the full list
	meal, err := svc.GetPlanView(ctx, "u1", "current-meal")
	require.NoError(t, err)
	assert.Equal(t, []string{"早餐：燕麦粥"}, meal.Items)

	ex, err := svc.GetPlanView(ctx, "u1", "exercise")
	require.NoError(t, err)
	assert.Equal(t, []string{"散步30分钟"}, ex.Items)

	hyd, err := svc.GetPlanView(ctx, "u1", "hydration")
	require.NoError(t, err)
	require.Len(t, hyd.Items, 1)
	assert.Contains(t, hyd.Items[0], "0/8")

	_, err = svc.GetPlanView(ctx, "u1", "bogus")
	assert.Error(t, err)
}

func TestPlanHistorySummary(t *testing.T) {
	svc, _, planner, setNow := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordMeal(ctx, "u1", "lunch", "吃了牛肉面")
	require.NoError(t, err)
	_, err = svc.WriteSummary(ctx, "u1", "状态不错", false)
	require.NoError(t, err)

	setNow(time.Date(2026, 3, 11, 12, 0, 0, 0, time.Local))
	_, err = svc.GetPlan(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, planner.lastHistory, "2026-03-10")
	assert.Contains(t, planner.lastHistory, "状态不错")
}

func TestWriteSummaryOnce(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.WriteSummary(ctx, "u1", "今天状态不错", false)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = svc.WriteSummary(ctx, "u1", "改主意了", false)
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = svc.WriteSummary(ctx, "u1", "改主意了", true)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestGetRecordValidatesDate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetRecord(context.Background(), "u1", "not-a-date")
	assert.Error(t, err)

	rec, err := svc.GetRecord(context.Background(), "u1", "2020-01-01")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
