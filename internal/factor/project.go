package factor

import (
	"fmt"

	"healthdaily/internal/record"
)

// PlanConstraints is the factor state projected into plan-generation inputs.
type PlanConstraints struct {
	AvoidStrenuous  bool
	RestOnly        bool
	DietaryNotes    []string
	MovementNotes   []string
	FactorSummaries []string
}

// ProjectConstraints flattens ongoing factors into the hints the plan
// generator feeds to its prompt (or to the default plan fallback).
func ProjectConstraints(rec *record.DailyRecord) PlanConstraints {
	var c PlanConstraints
	for _, f := range ActiveFactors(rec) {
		c.FactorSummaries = append(c.FactorSummaries,
			fmt.Sprintf("%s (%s, day %d)", f.Description, f.Severity, f.DurationDays))
		switch f.Severity {
		case record.SeveritySevere:
			c.RestOnly = true
			c.AvoidStrenuous = true
		case record.SeverityMedium:
			c.AvoidStrenuous = true
		}
		switch f.Type {
		case record.FactorIllness:
			c.DietaryNotes = append(c.DietaryNotes, "light, easy-to-digest meals; extra fluids")
		case record.FactorInjury:
			c.MovementNotes = append(c.MovementNotes, "avoid loading the injured area")
		case record.FactorEmotion:
			c.MovementNotes = append(c.MovementNotes, "gentle outdoor walks can help mood")
		case record.FactorFatigue:
			c.MovementNotes = append(c.MovementNotes, "prioritize rest and earlier sleep")
		}
	}
	return c
}
