/*
Package extract turns free-text activity descriptions into structured
exercise facts. All recognition is table-driven: exercise types, distance
forms and duration forms live in ordered rule slices so new patterns are a
data change, not a code change.
*/
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// ExerciseFact is the structured result of parsing one description.
type ExerciseFact struct {
	ExerciseType string
	DistanceKm   *float64
	DurationMin  *int
}

// HasQuantity reports whether either a distance or a duration was found.
func (f ExerciseFact) HasQuantity() bool {
	return f.DistanceKm != nil || f.DurationMin != nil
}

// TypeRule matches an exercise type by substring keywords. Rules are checked
// in order and the first hit wins, so more specific types come first.
type TypeRule struct {
	Type           string
	Keywords       []string
	DistancePriced bool // distance is the natural quantity to ask for
}

var typeRules = []TypeRule{
	{Type: "rope_skipping", Keywords: []string{"跳绳", "rope"}},
	{Type: "swimming", Keywords: []string{"游泳", "swim"}, DistancePriced: true},
	{Type: "cycling", Keywords: []string{"骑车", "骑行", "单车", "自行车", "cycling", "bike", "biking"}, DistancePriced: true},
	{Type: "running", Keywords: []string{"跑步", "慢跑", "晨跑", "夜跑", "跑了", "run", "jog"}, DistancePriced: true},
	{Type: "walking", Keywords: []string{"散步", "走路", "快走", "走了", "步行", "walk"}, DistancePriced: true},
	{Type: "yoga", Keywords: []string{"瑜伽", "yoga"}},
	{Type: "gym", Keywords: []string{"健身", "撸铁", "力量训练", "举铁", "gym", "weight"}},
	{Type: "badminton", Keywords: []string{"羽毛球", "badminton"}},
	{Type: "basketball", Keywords: []string{"篮球", "basketball"}},
	{Type: "football", Keywords: []string{"足球", "踢球", "football", "soccer"}},
	{Type: "dancing", Keywords: []string{"跳舞", "舞蹈", "danc"}},
	{Type: "climbing", Keywords: []string{"爬山", "登山", "hik", "climb"}},
}

// ExerciseTypeOther is the fallback when no type rule matched.
const ExerciseTypeOther = "other"

// DetectExerciseType classifies the description against the rule table.
func DetectExerciseType(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range typeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return ExerciseTypeOther
}

// DistancePriced reports whether the type is primarily measured by distance.
func DistancePriced(exerciseType string) bool {
	for _, rule := range typeRules {
		if rule.Type == exerciseType {
			return rule.DistancePriced
		}
	}
	return false
}

// quantityRule captures a number via one regex form; Fixed short-circuits for
// phrases that carry their value implicitly (半小时, 一刻钟).
type quantityRule struct {
	pattern *regexp.Regexp
	scale   float64
	fixed   *float64
}

var distanceRules = []quantityRule{
	{pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:公里|千米)`), scale: 1},
	{pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*km`), scale: 1},
	{pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*米`), scale: 0.001},
	{pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:mile|英里)`), scale: 1.609},
}

var durationRules = []quantityRule{
	{pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:分钟|分)`), scale: 1},
	{pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*min`), scale: 1},
	{pattern: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:个小时|小时)`), scale: 60},
	{pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:h|hour|hr)`), scale: 60},
	{pattern: regexp.MustCompile(`半个?小时`), fixed: floatp(30)},
	{pattern: regexp.MustCompile(`(\d+)\s*刻钟`), scale: 15},
	{pattern: regexp.MustCompile(`一刻钟`), fixed: floatp(15)},
}

func floatp(v float64) *float64 { return &v }

func matchQuantity(rules []quantityRule, text string) (float64, bool) {
	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if rule.fixed != nil {
			return *rule.fixed, true
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v * rule.scale, true
	}
	return 0, false
}

// ParseDistanceKm extracts a distance in kilometres, if present.
func ParseDistanceKm(text string) (float64, bool) {
	return matchQuantity(distanceRules, text)
}

// ParseDurationMin extracts a duration in whole minutes, if present.
func ParseDurationMin(text string) (int, bool) {
	v, ok := matchQuantity(durationRules, text)
	if !ok {
		return 0, false
	}
	return int(v + 0.5), true
}

// ParseExercise runs the full cascade: type, then distance, then duration.
func ParseExercise(text string) ExerciseFact {
	fact := ExerciseFact{ExerciseType: DetectExerciseType(text)}
	if km, ok := ParseDistanceKm(text); ok {
		fact.DistanceKm = &km
	}
	if min, ok := ParseDurationMin(text); ok {
		fact.DurationMin = &min
	}
	return fact
}
