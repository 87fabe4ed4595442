/*
Package record defines the per-date health record schema and the append-only
aggregation rules for meals, exercise and hydration. One DailyRecord exists
per user per calendar date; it is created with defaults on first access and
every state change is a full load-mutate-save of the record.
*/
package record

import (
	"fmt"
	"regexp"
	"time"
)

// Meal slot names. LateNight covers everything outside the three main windows.
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotLateNight = "late_night"
)

// Status labels for meal slots and the exercise log.
const (
	StatusNotDone = "not done"
	StatusEaten   = "eaten"
	StatusDone    = "done"
)

// Calorie calculation methods for exercise entries.
const (
	MethodByDistance = "by-distance"
	MethodByDuration = "by-duration"
	MethodEstimated  = "estimated"
)

// Exercise entry record statuses.
const (
	RecordPendingCalories = "pending-calories"
	RecordCalculated      = "calculated"
)

const (
	// DefaultHydrationTarget is the daily cup goal seeded into new records.
	DefaultHydrationTarget = 8

	// maxConversationEntries bounds the per-day conversation log; the oldest
	// entries are evicted first.
	maxConversationEntries = 100

	// maxMessageRunes truncates stored message content.
	maxMessageRunes = 500
)

// DateLayout is the identity key format for DailyRecord.
const DateLayout = "2006-01-02"

// FactorType classifies a negative factor.
type FactorType string

const (
	FactorInjury  FactorType = "injury"
	FactorIllness FactorType = "illness"
	FactorEmotion FactorType = "emotion"
	FactorFatigue FactorType = "fatigue"
	FactorOther   FactorType = "other"
)

// Severity is the three-step severity scale of a negative factor.
type Severity string

const (
	SeverityLight  Severity = "light"
	SeverityMedium Severity = "medium"
	SeveritySevere Severity = "severe"
)

// Level maps a severity onto its integer level (light=1, medium=2, severe=3).
func (s Severity) Level() int {
	switch s {
	case SeverityMedium:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 1
	}
}

// FactorStatus is the lifecycle state of a negative factor. Transitions are
// acyclic: active -> recovering -> recovered, or active -> recovered.
type FactorStatus string

const (
	StatusActive     FactorStatus = "active"
	StatusRecovering FactorStatus = "recovering"
	StatusRecovered  FactorStatus = "recovered"
)

// NegativeFactor is one recorded adverse health condition. Ids are carried
// forward across day-copies, never regenerated.
type NegativeFactor struct {
	ID               string       `json:"id"`
	Type             FactorType   `json:"type"`
	Description      string       `json:"description"`
	Severity         Severity     `json:"severity"`
	OriginalSeverity Severity     `json:"original_severity"`
	DurationDays     int          `json:"duration_days"`
	Status           FactorStatus `json:"status"`
	ShouldExercise   bool         `json:"should_exercise"`
	StartDate        string       `json:"start_date"`
	RecoveryDate     string       `json:"recovery_date,omitempty"`
	RecoveryNotes    string       `json:"recovery_notes,omitempty"`

	// Observational fields for the plan generator; not authoritative triggers.
	RecoveryProgressPercent int `json:"recovery_progress_percent"`
	EstimatedRemainingDays  int `json:"estimated_remaining_days"`

	AutoReduced     bool     `json:"auto_reduced"`
	CopiedFrom      string   `json:"copied_from,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	DetectionWeight float64  `json:"detection_weight,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Ongoing reports whether the factor still counts for impact scoring,
// eligibility and day-copy (i.e. has not recovered).
func (f *NegativeFactor) Ongoing() bool {
	return f.Status != StatusRecovered
}

// FactorState aggregates the day's negative factors with the derived impact
// score (0-10) and exercise verdict.
type FactorState struct {
	Factors        []NegativeFactor `json:"factors"`
	TotalImpact    int              `json:"total_impact"`
	ShouldExercise bool             `json:"should_exercise"`
}

// NutritionItem is the per-food breakdown of a diet estimate.
type NutritionItem struct {
	Name          string  `json:"name"`
	WeightG       float64 `json:"weight_g"`
	CookingMethod string  `json:"cooking_method,omitempty"`
	Source        string  `json:"source"` // "dish-lookup" or "base-table"
	Calories      int     `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
}

// Nutrition carries the calorie estimate attached to a meal entry. The range
// and accuracy band are part of the result contract; callers must not discard
// them.
type Nutrition struct {
	TotalCalories int             `json:"total_calories"`
	CalorieRange  string          `json:"calorie_range"`
	Accuracy      string          `json:"accuracy"`
	ProteinG      float64         `json:"protein_g"`
	CarbsG        float64         `json:"carbs_g"`
	FatG          float64         `json:"fat_g"`
	Items         []NutritionItem `json:"item_breakdown,omitempty"`
}

// MealEntry is one reported eating event. Entries are created once and never
// mutated except to attach nutrition data in a second step.
type MealEntry struct {
	Description   string     `json:"description"`
	Timestamp     time.Time  `json:"timestamp"`
	MealSlot      string     `json:"meal_slot"`
	SequenceIndex int        `json:"sequence_index"`
	Nutrition     *Nutrition `json:"nutrition,omitempty"`
}

// MealSlot pairs a human-readable status label with the ordered entries for
// that slot, oldest first.
type MealSlot struct {
	StatusLabel string      `json:"status_label"`
	Entries     []MealEntry `json:"entries"`
}

// ExerciseEntry is one reported exercise. Entries start pending-calories and
// are mutated in place to calculated once the estimate lands.
type ExerciseEntry struct {
	Description       string    `json:"description"`
	Timestamp         time.Time `json:"timestamp"`
	ExerciseType      string    `json:"exercise_type"`
	DistanceKm        *float64  `json:"distance_km,omitempty"`
	DurationMin       *int      `json:"duration_min,omitempty"`
	CaloriesBurned    int       `json:"calories_burned,omitempty"`
	CalculationMethod string    `json:"calculation_method,omitempty"`
	RecordStatus      string    `json:"record_status"`
}

// ExerciseLog holds the day's exercise entries, newest first (index 0 is the
// most recent entry; calorie attachment addresses entries by that index).
type ExerciseLog struct {
	StatusLabel string          `json:"status_label"`
	Entries     []ExerciseEntry `json:"entries"`
}

// HydrationEvent is one cup-count change.
type HydrationEvent struct {
	Cups      int       `json:"cups"`
	Timestamp time.Time `json:"timestamp"`
}

// Hydration tracks cups drunk against the daily target.
type Hydration struct {
	TargetCups  int              `json:"target_cups"`
	CurrentCups int              `json:"current_cups"`
	History     []HydrationEvent `json:"history,omitempty"`
}

// DailyPlan is the generated plan consumed by the chat layer.
type DailyPlan struct {
	FoodItems     []string  `json:"food_items"`
	MovementItems []string  `json:"movement_items"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Message is one conversation log entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyRecord is the full per-date state. The (UserID, Date) pair is the
// identity key.
type DailyRecord struct {
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	MealSlots       map[string]*MealSlot `json:"meal_slots"`
	Hydration       Hydration            `json:"hydration"`
	Exercise        ExerciseLog          `json:"exercise"`
	NegativeFactors FactorState          `json:"negative_factors"`
	DailyPlan       DailyPlan            `json:"daily_plan"`
	ConversationLog []Message            `json:"conversation_log"`
	Summary         string               `json:"summary"`
}

// MealSlotNames lists the slots in day order.
func MealSlotNames() []string {
	return []string{SlotBreakfast, SlotLunch, SlotDinner, SlotLateNight}
}

// NewDailyRecord builds a record with every field defaulted: slot statuses
// "not done", hydration at 0 of the default target, no factors, empty plan.
func NewDailyRecord(userID, date string, now time.Time) *DailyRecord {
	slots := make(map[string]*MealSlot, 4)
	for _, name := range MealSlotNames() {
		slots[name] = &MealSlot{StatusLabel: StatusNotDone}
	}
	return &DailyRecord{
		UserID:    userID,
		Date:      date,
		CreatedAt: now,
		MealSlots: slots,
		Hydration: Hydration{TargetCups: DefaultHydrationTarget},
		Exercise:  ExerciseLog{StatusLabel: StatusNotDone},
		NegativeFactors: FactorState{
			ShouldExercise: true,
		},
		DailyPlan: DailyPlan{},
	}
}

// Slot returns the named meal slot, creating it if a stored record predates
// the slot (construction-time default, not a scattered runtime branch).
func (r *DailyRecord) Slot(name string) *MealSlot {
	if r.MealSlots == nil {
		r.MealSlots = make(map[string]*MealSlot, 4)
	}
	s, ok := r.MealSlots[name]
	if !ok {
		s = &MealSlot{StatusLabel: StatusNotDone}
		r.MealSlots[name] = s
	}
	return s
}

// AppendMeal appends a new entry to the slot (never overwrites) and derives
// the status label: "eaten" for the first entry, "eaten ×N" afterwards.
func (r *DailyRecord) AppendMeal(slot, description string, now time.Time) *MealEntry {
	s := r.Slot(slot)
	entry := MealEntry{
		Description:   description,
		Timestamp:     now,
		MealSlot:      slot,
		SequenceIndex: len(s.Entries),
	}
	s.Entries = append(s.Entries, entry)
	s.StatusLabel = mealStatusLabel(len(s.Entries))
	return &s.Entries[len(s.Entries)-1]
}

func mealStatusLabel(n int) string {
	if n <= 1 {
		return StatusEaten
	}
	return fmt.Sprintf("%s ×%d", StatusEaten, n)
}

// AppendExercise inserts a new pending entry at the front of the exercise log
// so that index 0 always addresses the newest entry.
func (r *DailyRecord) AppendExercise(description, exerciseType string, distanceKm *float64, durationMin *int, now time.Time) *ExerciseEntry {
	entry := ExerciseEntry{
		Description:  description,
		Timestamp:    now,
		ExerciseType: exerciseType,
		DistanceKm:   distanceKm,
		DurationMin:  durationMin,
		RecordStatus: RecordPendingCalories,
	}
	r.Exercise.Entries = append([]ExerciseEntry{entry}, r.Exercise.Entries...)
	r.Exercise.StatusLabel = exerciseStatusLabel(len(r.Exercise.Entries))
	return &r.Exercise.Entries[0]
}

func exerciseStatusLabel(n int) string {
	if n <= 1 {
		return StatusDone
	}
	return fmt.Sprintf("%s ×%d", StatusDone, n)
}

// ExerciseEntryAt addresses exercise entries most-recent-first.
func (r *DailyRecord) ExerciseEntryAt(index int) (*ExerciseEntry, bool) {
	if index < 0 || index >= len(r.Exercise.Entries) {
		return nil, false
	}
	return &r.Exercise.Entries[index], true
}

// TotalCaloriesBurned sums calories across calculated exercise entries.
func (r *DailyRecord) TotalCaloriesBurned() int {
	total := 0
	for _, e := range r.Exercise.Entries {
		total += e.CaloriesBurned
	}
	return total
}

// CompletedSlots lists slots with at least one entry, in day order.
func (r *DailyRecord) CompletedSlots() []string {
	var done []string
	for _, name := range MealSlotNames() {
		if s, ok := r.MealSlots[name]; ok && len(s.Entries) > 0 {
			done = append(done, name)
		}
	}
	return done
}

// AddMessage appends a conversation entry, truncating content and evicting
// the oldest entries past the cap.
func (r *DailyRecord) AddMessage(role, content string, now time.Time) {
	if runes := []rune(content); len(runes) > maxMessageRunes {
		content = string(runes[:maxMessageRunes])
	}
	r.ConversationLog = append(r.ConversationLog, Message{Role: role, Content: content, Timestamp: now})
	if len(r.ConversationLog) > maxConversationEntries {
		r.ConversationLog = r.ConversationLog[len(r.ConversationLog)-maxConversationEntries:]
	}
}

// RecentMessages returns up to n of the newest conversation entries,
// oldest first.
func (r *DailyRecord) RecentMessages(n int) []Message {
	if n <= 0 || len(r.ConversationLog) == 0 {
		return nil
	}
	if n > len(r.ConversationLog) {
		n = len(r.ConversationLog)
	}
	return r.ConversationLog[len(r.ConversationLog)-n:]
}

// AddCup increments the hydration count by one.
func (r *DailyRecord) AddCup(now time.Time) int {
	r.Hydration.CurrentCups++
	r.Hydration.History = append(r.Hydration.History, HydrationEvent{Cups: r.Hydration.CurrentCups, Timestamp: now})
	return r.Hydration.CurrentCups
}

// SetCups sets the hydration count outright.
func (r *DailyRecord) SetCups(cups int, now time.Time) {
	if cups < 0 {
		cups = 0
	}
	r.Hydration.CurrentCups = cups
	r.Hydration.History = append(r.Hydration.History, HydrationEvent{Cups: cups, Timestamp: now})
}

// SetSummary writes the daily summary at most once per date unless force is
// set. Returns false when an existing summary blocked the write.
func (r *DailyRecord) SetSummary(text string, force bool) bool {
	if r.Summary != "" && !force {
		return false
	}
	r.Summary = text
	return true
}

var mealSlotPatterns = []struct {
	slot    string
	pattern *regexp.Regexp
}{
	{SlotBreakfast, regexp.MustCompile(`早餐|早饭|早点|晨餐|breakfast`)},
	{SlotLunch, regexp.MustCompile(`午餐|午饭|中餐|中午饭|lunch`)},
	{SlotDinner, regexp.MustCompile(`晚餐|晚饭|supper|dinner`)},
	{SlotLateNight, regexp.MustCompile(`宵夜|夜宵|midnight snack|late night`)},
}

// DetectMealSlot resolves "auto" slot selection: explicit slot keywords win,
// otherwise the hour of day decides (5-11 breakfast, 11-16 lunch, 16-22
// dinner, else late night).
func DetectMealSlot(text string, now time.Time) string {
	for _, p := range mealSlotPatterns {
		if p.pattern.MatchString(text) {
			return p.slot
		}
	}
	switch h := now.Hour(); {
	case h >= 5 && h < 11:
		return SlotBreakfast
	case h >= 11 && h < 16:
		return SlotLunch
	case h >= 16 && h < 22:
		return SlotDinner
	default:
		return SlotLateNight
	}
}
