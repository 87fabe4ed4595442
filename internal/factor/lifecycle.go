package factor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"healthdaily/internal/record"
)

// hardCeilingDays forces recovery regardless of severity.
const hardCeilingDays = 30

// recoveryThresholds maps (type, severity) to the expected recovery window
// in days. Unknown types fall back to the Other row.
var recoveryThresholds = map[record.FactorType]map[record.Severity]int{
	record.FactorInjury:  {record.SeverityLight: 3, record.SeverityMedium: 7, record.SeveritySevere: 14},
	record.FactorIllness: {record.SeverityLight: 3, record.SeverityMedium: 5, record.SeveritySevere: 10},
	record.FactorEmotion: {record.SeverityLight: 2, record.SeverityMedium: 4, record.SeveritySevere: 7},
	record.FactorFatigue: {record.SeverityLight: 2, record.SeverityMedium: 3, record.SeveritySevere: 5},
	record.FactorOther:   {record.SeverityLight: 3, record.SeverityMedium: 5, record.SeveritySevere: 7},
}

// Threshold returns the recovery window in days for a type and severity.
func Threshold(ft record.FactorType, severity record.Severity) int {
	row, ok := recoveryThresholds[ft]
	if !ok {
		row = recoveryThresholds[record.FactorOther]
	}
	t, ok := row[severity]
	if !ok {
		t = row[record.SeverityLight]
	}
	return t
}

// ApplyDecay runs the severity-decay state machine on one factor in place.
// Decay only reduces severity; escalation happens via fresh reports, never
// here. Rules are evaluated against the threshold of the severity the factor
// entered the day with; progress fields are then recomputed against the
// post-decay severity's threshold.
func ApplyDecay(f *record.NegativeFactor) {
	if !f.Ongoing() {
		return
	}
	d := f.DurationDays

	if d >= hardCeilingDays {
		f.Status = record.StatusRecovered
		if f.RecoveryNotes == "" {
			f.RecoveryNotes = fmt.Sprintf("auto-recovered after %d days", d)
		}
		f.RecoveryProgressPercent = 100
		f.EstimatedRemainingDays = 0
		return
	}

	t := Threshold(f.Type, f.Severity)
	switch f.Severity {
	case record.SeveritySevere:
		if d >= 2*t {
			f.Severity = record.SeverityLight
			f.AutoReduced = true
		} else if d >= t {
			f.Severity = record.SeverityMedium
			f.AutoReduced = true
		}
	case record.SeverityMedium:
		if float64(d) >= 1.5*float64(t) {
			f.Severity = record.SeverityLight
			f.AutoReduced = true
			f.Status = record.StatusRecovering
		} else if d >= t {
			f.Severity = record.SeverityLight
			f.AutoReduced = true
		}
	case record.SeverityLight:
		if d >= 2*t {
			f.Status = record.StatusRecovered
			if f.RecoveryNotes == "" {
				f.RecoveryNotes = fmt.Sprintf("auto-recovered after %d days", d)
			}
		} else if d >= t {
			f.Status = record.StatusRecovering
		}
	}

	ft := Threshold(f.Type, f.Severity)
	progress := int(math.Round(100 * float64(d) / float64(ft)))
	if progress > 100 {
		progress = 100
	}
	f.RecoveryProgressPercent = progress
	remaining := ft - d
	if remaining < 0 {
		remaining = 0
	}
	f.EstimatedRemainingDays = remaining
}

// CopyForward carries the previous day's ongoing factors into the current
// record. Each clone gets durationDays+1, a copiedFrom stamp, and one decay
// pass. Re-invoking for a record that already holds the copies is a no-op
// (dedup by factor id), so lazy rollover on every load stays idempotent.
func CopyForward(prev, cur *record.DailyRecord) int {
	if prev == nil {
		Recompute(cur)
		return 0
	}
	existing := make(map[string]bool, len(cur.NegativeFactors.Factors))
	for _, f := range cur.NegativeFactors.Factors {
		existing[f.ID] = true
	}
	copied := 0
	for _, f := range prev.NegativeFactors.Factors {
		if !f.Ongoing() || existing[f.ID] {
			continue
		}
		clone := f
		clone.DurationDays++
		clone.CopiedFrom = prev.Date
		if clone.MatchedKeywords != nil {
			clone.MatchedKeywords = append([]string(nil), f.MatchedKeywords...)
		}
		ApplyDecay(&clone)
		cur.NegativeFactors.Factors = append(cur.NegativeFactors.Factors, clone)
		copied++
	}
	Recompute(cur)
	return copied
}

// Recompute refreshes the record's aggregate impact score and exercise
// verdict from its ongoing factors. The impact score is capped at 10.
func Recompute(rec *record.DailyRecord) {
	impact := 0
	eligible := true
	for i := range rec.NegativeFactors.Factors {
		f := &rec.NegativeFactors.Factors[i]
		if !f.Ongoing() {
			continue
		}
		impact += f.Severity.Level()
		if f.Severity == record.SeveritySevere || !f.ShouldExercise {
			eligible = false
		}
	}
	if impact > 10 {
		impact = 10
	}
	rec.NegativeFactors.TotalImpact = impact
	rec.NegativeFactors.ShouldExercise = eligible
}

// FindDuplicate looks for an ongoing factor of the same type whose severity
// is within one level of the report. Such a report updates the existing
// episode instead of opening a new one; a jump of two levels is treated as a
// distinct fresh factor.
func FindDuplicate(rec *record.DailyRecord, ft record.FactorType, severity record.Severity) *record.NegativeFactor {
	for i := range rec.NegativeFactors.Factors {
		f := &rec.NegativeFactors.Factors[i]
		if !f.Ongoing() || f.Type != ft {
			continue
		}
		diff := severity.Level() - f.Severity.Level()
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			return f
		}
	}
	return nil
}

// AddFactor appends an explicitly reported factor and refreshes aggregates.
func AddFactor(rec *record.DailyRecord, ft record.FactorType, description string, severity record.Severity, shouldExercise bool, notes string, now time.Time) *record.NegativeFactor {
	f := record.NegativeFactor{
		ID:               uuid.NewString(),
		Type:             ft,
		Description:      description,
		Severity:         severity,
		OriginalSeverity: severity,
		DurationDays:     1,
		Status:           record.StatusActive,
		ShouldExercise:   shouldExercise,
		StartDate:        rec.Date,
		Notes:            notes,
	}
	ApplyDecay(&f)
	rec.NegativeFactors.Factors = append(rec.NegativeFactors.Factors, f)
	Recompute(rec)
	return &rec.NegativeFactors.Factors[len(rec.NegativeFactors.Factors)-1]
}

// Attach inserts an already-built factor (from detection) and refreshes
// aggregates.
func Attach(rec *record.DailyRecord, f record.NegativeFactor) *record.NegativeFactor {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	ApplyDecay(&f)
	rec.NegativeFactors.Factors = append(rec.NegativeFactors.Factors, f)
	Recompute(rec)
	return &rec.NegativeFactors.Factors[len(rec.NegativeFactors.Factors)-1]
}

// MarkRecovered closes the identified factor. It returns false when the id
// matches no ongoing factor.
func MarkRecovered(rec *record.DailyRecord, factorID, notes, date string) bool {
	for i := range rec.NegativeFactors.Factors {
		f := &rec.NegativeFactors.Factors[i]
		if f.ID != factorID || !f.Ongoing() {
			continue
		}
		f.Status = record.StatusRecovered
		f.RecoveryDate = date
		f.RecoveryNotes = notes
		f.RecoveryProgressPercent = 100
		f.EstimatedRemainingDays = 0
		Recompute(rec)
		return true
	}
	return false
}

// ActiveFactors returns the record's ongoing factors.
func ActiveFactors(rec *record.DailyRecord) []record.NegativeFactor {
	var active []record.NegativeFactor
	for _, f := range rec.NegativeFactors.Factors {
		if f.Ongoing() {
			active = append(active, f)
		}
	}
	return active
}

// Eligibility is the exercise verdict with human-readable context.
type Eligibility struct {
	Eligible   bool                    `json:"eligible"`
	Reason     string                  `json:"reason"`
	Suggestion string                  `json:"suggestion"`
	Factors    []record.NegativeFactor `json:"factors,omitempty"`
}

// CanExerciseToday derives the exercise verdict from ongoing factors.
func CanExerciseToday(rec *record.DailyRecord) Eligibility {
	active := ActiveFactors(rec)
	if len(active) == 0 {
		return Eligibility{
			Eligible:   true,
			Reason:     "no active negative factors",
			Suggestion: "normal exercise is fine today",
		}
	}
	for _, f := range active {
		if f.Severity == record.SeveritySevere {
			return Eligibility{
				Eligible:   false,
				Reason:     fmt.Sprintf("severe %s: %s", f.Type, f.Description),
				Suggestion: "rest until the condition improves",
				Factors:    active,
			}
		}
	}
	for _, f := range active {
		if !f.ShouldExercise {
			return Eligibility{
				Eligible:   false,
				Reason:     fmt.Sprintf("%s (%s) advises against exercise", f.Description, f.Severity),
				Suggestion: "light stretching at most, reassess tomorrow",
				Factors:    active,
			}
		}
	}
	return Eligibility{
		Eligible:   true,
		Reason:     "active factors are mild",
		Suggestion: "keep intensity light and stop if symptoms worsen",
		Factors:    active,
	}
}

// ImpactSummary renders the day's factor state as short human-readable text
// for the plan generator and the chat layer.
func ImpactSummary(rec *record.DailyRecord) string {
	active := ActiveFactors(rec)
	if len(active) == 0 {
		return "No active negative factors today."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d active factor(s), impact %d/10:\n", len(active), rec.NegativeFactors.TotalImpact)
	for _, f := range active {
		fmt.Fprintf(&b, "- %s (%s, %s, day %d, recovery %d%%, ~%d day(s) left)\n",
			f.Description, f.Type, f.Severity, f.DurationDays,
			f.RecoveryProgressPercent, f.EstimatedRemainingDays)
	}
	if rec.NegativeFactors.ShouldExercise {
		b.WriteString("Exercise: light activity is acceptable.")
	} else {
		b.WriteString("Exercise: rest is recommended today.")
	}
	return b.String()
}
