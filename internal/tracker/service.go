/*
Package tracker exposes the daily-health operation surface consumed by the
HTTP layer: meal and exercise logging, calorie estimation, negative-factor
reporting and recovery, hydration, plans and summaries. Every state-changing
operation is a full load-mutate-save of the affected date's record; lazy day
rollover runs on every load of today's record.
*/
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"healthdaily/internal/calorie"
	"healthdaily/internal/clarify"
	"healthdaily/internal/factor"
	"healthdaily/internal/record"
)

// FoodAnalyzer decomposes free text into structured food items. A degraded
// analysis (needsClarification with fallback questions) stands in for any
// failure; implementations never return an error.
type FoodAnalyzer interface {
	AnalyzeFood(ctx context.Context, foodInput string) calorie.FoodAnalysis
}

// PlanGenerator writes the daily plan from the record and a short summary of
// the preceding days, falling back to a fixed default on collaborator
// failure.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, rec *record.DailyRecord, history string) record.DailyPlan
}

// Notifier pushes record-change events to connected clients.
type Notifier interface {
	RecordUpdated(userID, date string)
}

// Service wires the engines around the record store. All collaborators are
// injected at construction; there is no package-level state.
type Service struct {
	store    record.Store
	analyzer FoodAnalyzer
	planner  PlanGenerator
	notify   Notifier
	now      func() time.Time

	// Per-date write locks: two concurrent writers to the same record would
	// otherwise lose updates in the read-modify-write cycle.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a Service. notify may be nil.
func New(store record.Store, analyzer FoodAnalyzer, planner PlanGenerator, notify Notifier) *Service {
	return &Service{
		store:    store,
		analyzer: analyzer,
		planner:  planner,
		notify:   notify,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) recordLock(userID, date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "/" + date
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Service) today() string {
	return s.now().Format(record.DateLayout)
}

// loadToday loads today's record and runs the lazy rollover: ongoing factors
// from the most recent prior record are copied forward with decay applied.
// The copy is idempotent, so repeated loads within a day are safe.
func (s *Service) loadToday(ctx context.Context, userID string) (*record.DailyRecord, error) {
	date := s.today()
	rec, err := s.store.Load(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading today's record: %w", err)
	}
	prev, err := s.store.Previous(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading previous record: %w", err)
	}
	if copied := factor.CopyForward(prev, rec); copied > 0 {
		log.Info().Str("user_id", userID).Str("date", date).Int("factors", copied).
			Msg("copied forward active factors")
		if err := s.store.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("persisting rollover: %w", err)
		}
	}
	return rec, nil
}

// mutateToday runs fn against today's record under the per-date lock and
// persists the result. fn returning false skips the save.
func (s *Service) mutateToday(ctx context.Context, userID string, fn func(*record.DailyRecord) (bool, error)) error {
	date := s.today()
	l := s.recordLock(userID, date)
	l.Lock()
	defer l.Unlock()

	rec, err := s.loadToday(ctx, userID)
	if err != nil {
		return err
	}
	dirty, err := fn(rec)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	if s.notify != nil {
		s.notify.RecordUpdated(userID, date)
	}
	return nil
}

// MealResult is the outcome of RecordMeal.
type MealResult struct {
	Success        bool     `json:"success"`
	StatusLabel    string   `json:"status_label"`
	MealSlot       string   `json:"meal_slot"`
	CompletedSlots []string `json:"completed_slots"`
	NextHint       string   `json:"next_hint,omitempty"`
}

// RecordMeal appends a meal entry to the resolved slot. slot "auto" resolves
// by keyword then time of day.
func (s *Service) RecordMeal(ctx context.Context, userID, slot, rawText string) (MealResult, error) {
	var result MealResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		resolved := slot
		if resolved == "" || resolved == "auto" {
			resolved = record.DetectMealSlot(rawText, s.now())
		}
		rec.AppendMeal(resolved, rawText, s.now())
		rec.AddMessage("user", rawText, s.now())
		result = MealResult{
			Success:        true,
			StatusLabel:    rec.Slot(resolved).StatusLabel,
			MealSlot:       resolved,
			CompletedSlots: rec.CompletedSlots(),
			NextHint:       nextMealHint(rec),
		}
		return true, nil
	})
	return result, err
}

func nextMealHint(rec *record.DailyRecord) string {
	done := make(map[string]bool)
	for _, s := range rec.CompletedSlots() {
		done[s] = true
	}
	for _, name := range record.MealSlotNames() {
		if name == record.SlotLateNight {
			continue
		}
		if !done[name] {
			return fmt.Sprintf("%s is still unlogged", name)
		}
	}
	return ""
}

// ExerciseResult covers RecordExercise and EstimateExerciseCalories.
type ExerciseResult struct {
	Success            bool     `json:"success"`
	NeedsClarification bool     `json:"needs_clarification"`
	Questions          []string `json:"questions,omitempty"`
	StatusLabel        string   `json:"status_label,omitempty"`
	ExerciseType       string   `json:"exercise_type,omitempty"`
	CaloriesBurned     int      `json:"calories_burned,omitempty"`
	CalculationMethod  string   `json:"calculation_method,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// RecordExercise parses the description and, when complete, appends a new
// exercise entry with its calorie estimate attached. Ambiguous input returns
// clarification questions without touching the record beyond the log.
func (s *Service) RecordExercise(ctx context.Context, userID, rawText, exerciseType string) (ExerciseResult, error) {
	var result ExerciseResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		analysis := clarify.AnalyzeExercise(rawText, rec.ConversationLog)
		rec.AddMessage("user", rawText, s.now())

		if exerciseType != "" && exerciseType != "auto" {
			analysis = analysis.WithType(exerciseType)
		}
		if analysis.NeedsClarification {
			result = ExerciseResult{NeedsClarification: true, Questions: analysis.Questions}
			rec.AddMessage("assistant", strings.Join(analysis.Questions, " "), s.now())
			return true, nil
		}

		entry := rec.AppendExercise(analysis.FullInput, analysis.Fact.ExerciseType,
			analysis.Fact.DistanceKm, analysis.Fact.DurationMin, s.now())
		est := calorie.EstimateExercise(analysis.Fact.ExerciseType, analysis.Fact.DistanceKm, analysis.Fact.DurationMin)
		entry.CaloriesBurned = est.Calories
		entry.CalculationMethod = est.Method
		entry.RecordStatus = record.RecordCalculated

		result = ExerciseResult{
			Success:           true,
			StatusLabel:       rec.Exercise.StatusLabel,
			ExerciseType:      analysis.Fact.ExerciseType,
			CaloriesBurned:    est.Calories,
			CalculationMethod: est.Method,
			Explanation:       est.Explanation,
		}
		return true, nil
	})
	return result, err
}

// EstimateExerciseCalories re-analyzes the text (merging pending follow-ups)
// and attaches the estimate to the addressed entry, newest first. Index 0 is
// the most recent entry; a missing entry is a failure result, not an error.
func (s *Service) EstimateExerciseCalories(ctx context.Context, userID, rawText, exerciseType string, entryIndex int) (ExerciseResult, error) {
	var result ExerciseResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		analysis := clarify.AnalyzeExercise(rawText, rec.ConversationLog)
		rec.AddMessage("user", rawText, s.now())

		if exerciseType != "" && exerciseType != "auto" {
			analysis = analysis.WithType(exerciseType)
		}
		if analysis.NeedsClarification {
			result = ExerciseResult{NeedsClarification: true, Questions: analysis.Questions}
			rec.AddMessage("assistant", strings.Join(analysis.Questions, " "), s.now())
			return true, nil
		}

		entry, ok := rec.ExerciseEntryAt(entryIndex)
		if !ok {
			result = ExerciseResult{
				Success:     false,
				Explanation: fmt.Sprintf("no exercise entry at index %d", entryIndex),
			}
			return true, nil
		}
		est := calorie.EstimateExercise(analysis.Fact.ExerciseType, analysis.Fact.DistanceKm, analysis.Fact.DurationMin)
		entry.CaloriesBurned = est.Calories
		entry.CalculationMethod = est.Method
		entry.RecordStatus = record.RecordCalculated
		if analysis.Fact.DistanceKm != nil {
			entry.DistanceKm = analysis.Fact.DistanceKm
		}
		if analysis.Fact.DurationMin != nil {
			entry.DurationMin = analysis.Fact.DurationMin
		}

		result = ExerciseResult{
			Success:           true,
			StatusLabel:       rec.Exercise.StatusLabel,
			ExerciseType:      analysis.Fact.ExerciseType,
			CaloriesBurned:    est.Calories,
			CalculationMethod: est.Method,
			Explanation:       est.Explanation,
		}
		return true, nil
	})
	return result, err
}

// DietResult is the outcome of EstimateDietCalories.
type DietResult struct {
	Success            bool              `json:"success"`
	NeedsClarification bool              `json:"needs_clarification"`
	Questions          []string          `json:"questions,omitempty"`
	Nutrition          *record.Nutrition `json:"nutrition,omitempty"`
	MealSlot           string            `json:"meal_slot,omitempty"`
	StatusLabel        string            `json:"status_label,omitempty"`
}

// EstimateDietCalories merges pending diet follow-ups, decomposes the food
// text via the analyzer, and on a clear result appends a meal entry with the
// computed nutrition attached.
func (s *Service) EstimateDietCalories(ctx context.Context, userID, rawText, slot string) (DietResult, error) {
	var result DietResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		merged, _ := clarify.MergeDietFollowup(rawText, rec.ConversationLog)
		rec.AddMessage("user", rawText, s.now())

		analysis := s.analyzer.AnalyzeFood(ctx, merged)
		need, questions := clarify.DietVerdict(analysis.ClarityScore, analysis.NeedsClarification, analysis.Questions)
		if need {
			result = DietResult{NeedsClarification: true, Questions: questions}
			rec.AddMessage("assistant", strings.Join(questions, " "), s.now())
			return true, nil
		}

		nutrition := calorie.EstimateDiet(analysis)
		resolved := slot
		if resolved == "" || resolved == "auto" {
			resolved = record.DetectMealSlot(merged, s.now())
		}
		entry := rec.AppendMeal(resolved, merged, s.now())
		entry.Nutrition = &nutrition

		result = DietResult{
			Success:     true,
			Nutrition:   &nutrition,
			MealSlot:    resolved,
			StatusLabel: rec.Slot(resolved).StatusLabel,
		}
		return true, nil
	})
	return result, err
}

// FactorResult is the outcome of ReportNegativeFactor.
type FactorResult struct {
	Detected            bool   `json:"detected"`
	Type                string `json:"type,omitempty"`
	Severity            string `json:"severity,omitempty"`
	Description         string `json:"description,omitempty"`
	ShouldExercise      bool   `json:"should_exercise"`
	IsDuplicateOfActive bool   `json:"is_duplicate_of_active"`
	FactorID            string `json:"factor_id,omitempty"`
	TotalImpact         int    `json:"total_impact"`
}

// ReportNegativeFactor runs detection over the text. A detection matching an
// ongoing factor of the same type within one severity level updates that
// episode instead of opening a new one; a two-level escalation is a fresh
// factor.
func (s *Service) ReportNegativeFactor(ctx context.Context, userID, rawText string) (FactorResult, error) {
	var result FactorResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		rec.AddMessage("user", rawText, s.now())
		d := factor.Detect(rawText)
		if d == nil {
			result = FactorResult{Detected: false, ShouldExercise: rec.NegativeFactors.ShouldExercise,
				TotalImpact: rec.NegativeFactors.TotalImpact}
			return true, nil
		}

		if dup := factor.FindDuplicate(rec, d.Type, d.Severity); dup != nil {
			dup.Description = d.Description
			dup.MatchedKeywords = d.MatchedKeywords
			dup.DetectionWeight = d.TotalWeight
			dup.DurationDays++
			factor.ApplyDecay(dup)
			factor.Recompute(rec)
			result = FactorResult{
				Detected:            true,
				Type:                string(dup.Type),
				Severity:            string(dup.Severity),
				Description:         dup.Description,
				ShouldExercise:      rec.NegativeFactors.ShouldExercise,
				IsDuplicateOfActive: true,
				FactorID:            dup.ID,
				TotalImpact:         rec.NegativeFactors.TotalImpact,
			}
			return true, nil
		}

		f := factor.Attach(rec, d.NewFactor(rec.Date, s.now()))
		result = FactorResult{
			Detected:       true,
			Type:           string(f.Type),
			Severity:       string(f.Severity),
			Description:    f.Description,
			ShouldExercise: rec.NegativeFactors.ShouldExercise,
			FactorID:       f.ID,
			TotalImpact:    rec.NegativeFactors.TotalImpact,
		}
		return true, nil
	})
	return result, err
}

// RecoveryResult is the outcome of MarkFactorRecovered.
type RecoveryResult struct {
	Success        bool                    `json:"success"`
	Message        string                  `json:"message,omitempty"`
	NeedsSelection bool                    `json:"needs_selection,omitempty"`
	Candidates     []record.NegativeFactor `json:"candidates,omitempty"`
}

// MarkFactorRecovered closes a factor by id. Without an id, a single ongoing
// factor is closed directly; multiple candidates are returned for selection.
func (s *Service) MarkFactorRecovered(ctx context.Context, userID, factorID, notes string) (RecoveryResult, error) {
	var result RecoveryResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		active := factor.ActiveFactors(rec)
		if factorID == "" {
			switch len(active) {
			case 0:
				result = RecoveryResult{Success: false, Message: "no active factors to recover"}
				return false, nil
			case 1:
				factorID = active[0].ID
			default:
				result = RecoveryResult{NeedsSelection: true, Candidates: active}
				return false, nil
			}
		}
		if !factor.MarkRecovered(rec, factorID, notes, rec.Date) {
			result = RecoveryResult{Success: false, Message: fmt.Sprintf("unknown or already recovered factor %s", factorID)}
			return false, nil
		}
		result = RecoveryResult{Success: true, Message: "factor marked as recovered"}
		return true, nil
	})
	return result, err
}

// GetExerciseEligibility returns today's exercise verdict.
func (s *Service) GetExerciseEligibility(ctx context.Context, userID string) (factor.Eligibility, error) {
	rec, err := s.loadToday(ctx, userID)
	if err != nil {
		return factor.Eligibility{}, err
	}
	return factor.CanExerciseToday(rec), nil
}

// GetImpactSummary returns the day's factor state as text.
func (s *Service) GetImpactSummary(ctx context.Context, userID string) (string, error) {
	rec, err := s.loadToday(ctx, userID)
	if err != nil {
		return "", err
	}
	return factor.ImpactSummary(rec), nil
}

// HydrationResult reports the cup count after a change.
type HydrationResult struct {
	CurrentCups int  `json:"current_cups"`
	TargetCups  int  `json:"target_cups"`
	GoalReached bool `json:"goal_reached"`
}

// AddCup increments today's hydration by one cup.
func (s *Service) AddCup(ctx context.Context, userID string) (HydrationResult, error) {
	var result HydrationResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		rec.AddCup(s.now())
		result = hydrationResult(rec)
		return true, nil
	})
	return result, err
}

// SetCups sets today's hydration count outright.
func (s *Service) SetCups(ctx context.Context, userID string, cups int) (HydrationResult, error) {
	var result HydrationResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		rec.SetCups(cups, s.now())
		result = hydrationResult(rec)
		return true, nil
	})
	return result, err
}

func hydrationResult(rec *record.DailyRecord) HydrationResult {
	return HydrationResult{
		CurrentCups: rec.Hydration.CurrentCups,
		TargetCups:  rec.Hydration.TargetCups,
		GoalReached: rec.Hydration.CurrentCups >= rec.Hydration.TargetCups,
	}
}

// historySummary condenses up to the three most recent prior days into plan
// prompt context: completed slots, exercise burn, hydration and the written
// summary when one exists.
func (s *Service) historySummary(ctx context.Context, userID, beforeDate string) string {
	var lines []string
	date := beforeDate
	for i := 0; i < 3; i++ {
		prev, err := s.store.Previous(ctx, userID, date)
		if err != nil || prev == nil {
			break
		}
		line := fmt.Sprintf("%s：完成餐次 %s；运动消耗 %d 千卡；饮水 %d/%d 杯",
			prev.Date, strings.Join(prev.CompletedSlots(), "、"), prev.TotalCaloriesBurned(),
			prev.Hydration.CurrentCups, prev.Hydration.TargetCups)
		if prev.Summary != "" {
			line += "；小结：" + prev.Summary
		}
		lines = append(lines, line)
		date = prev.Date
	}
	return strings.Join(lines, "\n")
}

// GetPlan returns today's plan, generating one on first access.
func (s *Service) GetPlan(ctx context.Context, userID string) (record.DailyPlan, error) {
	var plan record.DailyPlan
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		if len(rec.DailyPlan.FoodItems) > 0 {
			plan = rec.DailyPlan
			return false, nil
		}
		rec.DailyPlan = s.planner.GeneratePlan(ctx, rec, s.historySummary(ctx, userID, rec.Date))
		rec.DailyPlan.CreatedAt = s.now()
		plan = rec.DailyPlan
		return true, nil
	})
	return plan, err
}

// RegeneratePlan discards today's plan and generates a fresh one.
func (s *Service) RegeneratePlan(ctx context.Context, userID string) (record.DailyPlan, error) {
	var plan record.DailyPlan
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		rec.DailyPlan = s.planner.GeneratePlan(ctx, rec, s.historySummary(ctx, userID, rec.Date))
		rec.DailyPlan.CreatedAt = s.now()
		plan = rec.DailyPlan
		return true, nil
	})
	return plan, err
}

// PlanView is one slice of the daily plan.
type PlanView struct {
	View  string            `json:"view"`
	Items []string          `json:"items,omitempty"`
	Plan  *record.DailyPlan `json:"plan,omitempty"`
}

// GetPlanView returns the requested slice of today's plan: the food item for
// the current or next meal, the movement list, hydration progress, or the
// whole plan.
func (s *Service) GetPlanView(ctx context.Context, userID, view string) (PlanView, error) {
	plan, err := s.GetPlan(ctx, userID)
	if err != nil {
		return PlanView{}, err
	}
	switch view {
	case "", "all":
		return PlanView{View: "all", Plan: &plan}, nil
	case "current-meal":
		return PlanView{View: view, Items: mealPlanItems(plan, currentMealIndex(s.now().Hour()))}, nil
	case "next-meal":
		return PlanView{View: view, Items: mealPlanItems(plan, currentMealIndex(s.now().Hour())+1)}, nil
	case "exercise":
		return PlanView{View: view, Items: plan.MovementItems}, nil
	case "hydration":
		rec, err := s.loadToday(ctx, userID)
		if err != nil {
			return PlanView{}, err
		}
		return PlanView{View: view, Items: []string{
			fmt.Sprintf("今日饮水 %d/%d 杯", rec.Hydration.CurrentCups, rec.Hydration.TargetCups),
		}}, nil
	default:
		return PlanView{}, fmt.Errorf("unknown plan view %q", view)
	}
}

// currentMealIndex maps the hour to the breakfast/lunch/dinner position used
// to address plan food items.
func currentMealIndex(hour int) int {
	switch {
	case hour < 11:
		return 0
	case hour < 16:
		return 1
	default:
		return 2
	}
}

func mealPlanItems(plan record.DailyPlan, index int) []string {
	if index >= 0 && index < len(plan.FoodItems) {
		return []string{plan.FoodItems[index]}
	}
	return plan.FoodItems
}

// SummaryResult is the outcome of WriteSummary.
type SummaryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// WriteSummary stores the day's summary, write-once unless forced.
func (s *Service) WriteSummary(ctx context.Context, userID, text string, force bool) (SummaryResult, error) {
	var result SummaryResult
	err := s.mutateToday(ctx, userID, func(rec *record.DailyRecord) (bool, error) {
		if !rec.SetSummary(text, force) {
			result = SummaryResult{Success: false, Message: "summary already written for today", Summary: rec.Summary}
			return false, nil
		}
		result = SummaryResult{Success: true, Summary: rec.Summary}
		return true, nil
	})
	return result, err
}

// GetRecord returns the record for a date ("" or "today" resolves to today,
// with rollover applied). A missing historical record returns nil.
func (s *Service) GetRecord(ctx context.Context, userID, date string) (*record.DailyRecord, error) {
	if date == "" || date == "today" || date == s.today() {
		return s.loadToday(ctx, userID)
	}
	if _, err := time.Parse(record.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return s.store.Get(ctx, userID, date)
}
