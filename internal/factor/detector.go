/*
Package factor implements negative-factor detection and the lifecycle rules
that decay, recover and carry factors across days. Detection is keyword-weight
scoring over free text; lifecycle transitions are driven by per-type duration
threshold tables.
*/
package factor

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"healthdaily/internal/record"
)

// detectionThreshold is the minimum summed keyword weight for a positive
// detection.
const detectionThreshold = 0.5

// negationWindow is how many runes before a keyword are scanned for a
// negation word.
const negationWindow = 5

// keywordWeights scores each trigger word. Degree adverbs carry small
// positive or negative adjustments; they modulate the score without being a
// factor on their own.
var keywordWeights = map[string]float64{
	// injury
	"骨折": 3.0, "断骨": 3.0, "骨裂": 2.5,
	"扭伤": 2.0, "拉伤": 2.0, "挫伤": 2.0,
	"擦伤": 1.0, "刮伤": 1.0, "磕伤": 1.0,
	"割伤": 1.5, "划伤": 1.5,
	"膝盖": 2.0, "脚踝": 2.0, "手腕": 1.5,
	"扭到": 1.8, "摔伤": 2.0, "跌倒": 1.5,

	// illness
	"发烧": 2.0, "感冒": 1.5, "咳嗽": 1.0,
	"头痛": 1.5, "头晕": 1.5, "恶心": 1.8,
	"呕吐": 2.0, "腹泻": 2.0, "腹痛": 1.8,
	"流感": 2.0, "肺炎": 3.0, "感染": 2.5,
	"过敏": 1.5, "气喘": 2.0,

	// emotion
	"难过": 1.5, "伤心": 1.5, "沮丧": 1.5,
	"抑郁": 2.5, "焦虑": 2.0, "压力": 1.8,
	"烦躁": 1.5, "生气": 1.2, "愤怒": 1.5,
	"失落": 1.5, "孤独": 1.8,
	"哭": 1.2, "流泪": 1.2,

	// fatigue
	"累": 1.0, "疲惫": 1.2, "疲劳": 1.2,
	"困": 0.8, "困倦": 0.8, "没精神": 1.5,
	"虚弱": 1.8, "乏力": 1.8,

	// degree adverbs
	"很": 0.5, "非常": 0.7, "特别": 0.7,
	"极其": 0.9, "严重": 1.0, "轻微": -0.5,
	"一点": -0.3, "有点": -0.3,
}

// severityKeywords override the weight-derived severity when present.
// Ordered so longer phrases are checked before their prefixes.
var severityKeywords = []struct {
	keyword  string
	severity record.Severity
}{
	{"非常严重", record.SeveritySevere},
	{"很严重", record.SeveritySevere},
	{"严重", record.SeveritySevere},
	{"重度", record.SeveritySevere},
	{"中度", record.SeverityMedium},
	{"轻微", record.SeverityLight},
	{"轻度", record.SeverityLight},
	{"一点", record.SeverityLight},
	{"有点", record.SeverityLight},
}

var negationWords = []string{"不", "没有", "没", "未", "无", "非"}

// orderedKeywords fixes keyword scan order so matched-keyword lists and
// generated descriptions are deterministic for the same input.
var orderedKeywords = func() []string {
	keys := make([]string, 0, len(keywordWeights))
	for kw := range keywordWeights {
		keys = append(keys, kw)
	}
	sort.Strings(keys)
	return keys
}()

// typeHintWords classify matched keywords into factor types by character
// fragments; the type with the most hits wins.
var typeHintWords = map[record.FactorType][]string{
	record.FactorInjury:  {"伤", "扭", "拉", "挫", "摔", "跌", "骨折", "骨裂"},
	record.FactorIllness: {"病", "烧", "咳", "吐", "泻", "痛", "晕", "炎", "感染", "感冒", "流感", "过敏"},
	record.FactorEmotion: {"难过", "伤心", "沮丧", "抑郁", "焦虑", "生气", "愤怒"},
	record.FactorFatigue: {"累", "疲惫", "疲劳", "困", "乏", "虚弱"},
}

// Detection is one positive detection result.
type Detection struct {
	Type            record.FactorType
	Description     string
	Severity        record.Severity
	TotalWeight     float64
	MatchedKeywords []string
	ShouldExercise  bool
}

// Detect scores the text against the keyword table. It returns nil when the
// summed weight stays below the detection threshold. Weight of a negated
// keyword counts at minus half value and the keyword is not recorded as
// matched.
func Detect(text string) *Detection {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	total := 0.0
	var matched []string
	for _, kw := range orderedKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		weight := keywordWeights[kw]
		if negatedBefore(lower, kw) {
			total -= weight * 0.5
			continue
		}
		total += weight
		matched = append(matched, kw)
	}
	if total < detectionThreshold {
		return nil
	}

	severity := detectSeverity(lower, total)
	factorType := determineType(matched, lower)
	return &Detection{
		Type:            factorType,
		Description:     describe(matched),
		Severity:        severity,
		TotalWeight:     total,
		MatchedKeywords: matched,
		ShouldExercise:  shouldExercise(factorType, severity, total),
	}
}

func negatedBefore(text, keyword string) bool {
	idx := strings.Index(text, keyword)
	if idx <= 0 {
		return false
	}
	runes := []rune(text[:idx])
	start := len(runes) - negationWindow
	if start < 0 {
		start = 0
	}
	window := string(runes[start:])
	for _, neg := range negationWords {
		if strings.Contains(window, neg) {
			return true
		}
	}
	return false
}

func detectSeverity(text string, weight float64) record.Severity {
	for _, sk := range severityKeywords {
		if strings.Contains(text, sk.keyword) {
			return sk.severity
		}
	}
	switch {
	case weight >= 2.5:
		return record.SeveritySevere
	case weight >= 1.5:
		return record.SeverityMedium
	default:
		return record.SeverityLight
	}
}

func determineType(matched []string, text string) record.FactorType {
	best := record.FactorOther
	bestScore := 0
	for _, ft := range []record.FactorType{record.FactorInjury, record.FactorIllness, record.FactorEmotion, record.FactorFatigue} {
		score := 0
		for _, hint := range typeHintWords[ft] {
			for _, kw := range matched {
				if strings.Contains(kw, hint) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = ft
		}
	}
	if bestScore > 0 {
		return best
	}
	// No matched keyword classified; fall back to scanning the raw text.
	for _, ft := range []record.FactorType{record.FactorInjury, record.FactorIllness, record.FactorEmotion, record.FactorFatigue} {
		for _, hint := range typeHintWords[ft] {
			if strings.Contains(text, hint) {
				return ft
			}
		}
	}
	return record.FactorOther
}

func shouldExercise(ft record.FactorType, severity record.Severity, weight float64) bool {
	if severity == record.SeveritySevere {
		return false
	}
	switch ft {
	case record.FactorInjury:
		return severity == record.SeverityLight
	case record.FactorIllness:
		return severity == record.SeverityLight && weight < 1.5
	case record.FactorEmotion:
		return true
	case record.FactorFatigue:
		return severity == record.SeverityLight
	default:
		return true
	}
}

func describe(matched []string) string {
	if len(matched) == 0 {
		return "检测到负面情绪或状态"
	}
	var important []string
	for _, kw := range matched {
		if keywordWeights[kw] > 1.0 {
			important = append(important, kw)
		}
	}
	if len(important) == 0 {
		return matched[0] + "等相关不适"
	}
	if len(important) > 3 {
		important = important[:3]
	}
	return strings.Join(important, "、") + "相关不适"
}

// NewFactor materializes a detection into a day-one factor record.
func (d *Detection) NewFactor(date string, now time.Time) record.NegativeFactor {
	return record.NegativeFactor{
		ID:               uuid.NewString(),
		Type:             d.Type,
		Description:      d.Description,
		Severity:         d.Severity,
		OriginalSeverity: d.Severity,
		DurationDays:     1,
		Status:           record.StatusActive,
		ShouldExercise:   d.ShouldExercise,
		StartDate:        date,
		MatchedKeywords:  d.MatchedKeywords,
		DetectionWeight:  d.TotalWeight,
	}
}
