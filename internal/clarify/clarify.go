/*
Package clarify decides whether a free-text report carries enough information
to act on, and merges supplementary follow-up answers with the earlier
ambiguous input before re-extraction. The exercise path is fully
deterministic; the diet path only interprets the extractor's clarity verdict.
*/
package clarify

import (
	"fmt"
	"strings"

	"healthdaily/internal/extract"
	"healthdaily/internal/record"
)

// FollowupSeparator joins the previous ambiguous input with the supplement.
const FollowupSeparator = "。补充："

// historyWindow bounds how far back the conversation is scanned for a
// pending clarification exchange.
const historyWindow = 10

// maxQuestions caps the questions surfaced per clarification round.
const maxQuestions = 3

// supplementMarkers flag a reply as supplementary information rather than a
// fresh report.
var supplementMarkers = []string{
	"大概", "大约", "左右", "分钟", "小时", "公里", "km", "min",
	"补充", "还有", "另外", "加上", "克", "grams",
}

// clarificationTopics identify an assistant message as an exercise
// clarification question.
var clarificationTopics = []string{"运动", "跑步", "游泳", "健身", "距离", "时间", "分钟", "公里"}

// exerciseHints mark a user message as an exercise description.
var exerciseHints = []string{"运动", "跑", "游", "健", "练", "动", "走", "骑"}

// dietTopics identify an assistant message as a diet clarification question.
var dietTopics = []string{"食物", "吃", "克", "份量", "烹饪", "热量", "卡路里"}

// dietHints mark a user message as a food description.
var dietHints = []string{"吃", "喝", "餐", "饭", "面", "肉", "菜", "奶", "果"}

// genericActivityWords let a typeless description pass rule 1 (the user did
// say they exercised, just not what).
var genericActivityWords = []string{"运动", "锻炼", "健身"}

// displayNames localize exercise type ids in question text.
var displayNames = map[string]string{
	"running":       "跑步",
	"walking":       "步行",
	"cycling":       "骑行",
	"swimming":      "游泳",
	"rope_skipping": "跳绳",
	"yoga":          "瑜伽",
	"gym":           "健身",
	"badminton":     "羽毛球",
	"basketball":    "篮球",
	"football":      "足球",
	"dancing":       "跳舞",
	"climbing":      "爬山",
}

// DisplayName returns the localized label for an exercise type id.
func DisplayName(exerciseType string) string {
	if name, ok := displayNames[exerciseType]; ok {
		return name
	}
	return "运动"
}

// ExerciseAnalysis is the clarification verdict on one (possibly merged)
// exercise description.
type ExerciseAnalysis struct {
	Fact               extract.ExerciseFact
	FullInput          string
	IsFollowup         bool
	NeedsClarification bool
	Questions          []string
}

// IsSupplement reports whether the text reads as a follow-up answer rather
// than a standalone report.
func IsSupplement(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range supplementMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// MergeFollowup concatenates the previous input with the supplement in the
// fixed marker format.
func MergeFollowup(previous, current string) string {
	return previous + FollowupSeparator + current
}

// PendingExerciseInput scans recent history (newest first) for an assistant
// clarification question about exercise and returns the nearest preceding
// user exercise description, or "" when no such exchange is pending.
func PendingExerciseInput(history []record.Message) string {
	return pendingInput(history, clarificationTopics, exerciseHints)
}

// PendingDietInput is the diet-path counterpart of PendingExerciseInput.
func PendingDietInput(history []record.Message) string {
	return pendingInput(history, dietTopics, dietHints)
}

func pendingInput(history []record.Message, topics, hints []string) string {
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	window := history[start:]
	for i := len(window) - 1; i > 0; i-- {
		if window[i].Role != "assistant" {
			continue
		}
		content := strings.ToLower(window[i].Content)
		if !containsAny(content, topics) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if window[j].Role != "user" {
				continue
			}
			if containsAny(window[j].Content, hints) {
				return window[j].Content
			}
		}
		return ""
	}
	return ""
}

// MergeDietFollowup merges a pending diet input with a supplementary reply,
// returning the combined text and whether a merge happened.
func MergeDietFollowup(input string, history []record.Message) (string, bool) {
	if previous := PendingDietInput(history); previous != "" && IsSupplement(input) {
		return MergeFollowup(previous, input), true
	}
	return input, false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// AnalyzeExercise runs follow-up merge then extraction then the decision
// rules. history may be nil for a context-free analysis.
func AnalyzeExercise(input string, history []record.Message) ExerciseAnalysis {
	full := input
	followup := false
	if previous := PendingExerciseInput(history); previous != "" && IsSupplement(input) {
		full = MergeFollowup(previous, input)
		followup = true
	}
	return analyze(full, followup)
}

func analyze(full string, followup bool) ExerciseAnalysis {
	return decide(extract.ParseExercise(full), full, followup)
}

// WithType re-runs the decision rules with an explicitly supplied exercise
// type, clearing a type question that the override answers.
func (a ExerciseAnalysis) WithType(exerciseType string) ExerciseAnalysis {
	if exerciseType == "" || exerciseType == a.Fact.ExerciseType {
		return a
	}
	fact := a.Fact
	fact.ExerciseType = exerciseType
	return decide(fact, a.FullInput, a.IsFollowup)
}

func decide(fact extract.ExerciseFact, full string, followup bool) ExerciseAnalysis {
	a := ExerciseAnalysis{Fact: fact, FullInput: full, IsFollowup: followup}

	name := DisplayName(fact.ExerciseType)
	switch {
	case fact.ExerciseType == extract.ExerciseTypeOther && !containsAny(full, genericActivityWords):
		a.NeedsClarification = true
		a.Questions = append(a.Questions, "您进行的是什么类型的运动？（如：跑步、游泳、健身等）")
	case extract.DistancePriced(fact.ExerciseType) && fact.DistanceKm == nil:
		a.NeedsClarification = true
		a.Questions = append(a.Questions, fmt.Sprintf("您%s了多远距离？（如：5公里、3km等）", name))
	case !extract.DistancePriced(fact.ExerciseType) && fact.ExerciseType != extract.ExerciseTypeOther && fact.DurationMin == nil:
		a.NeedsClarification = true
		a.Questions = append(a.Questions, fmt.Sprintf("您%s了多长时间？（如：30分钟、1小时等）", name))
	case len([]rune(strings.TrimSpace(full))) < 4 && !followup:
		a.NeedsClarification = true
		a.Questions = append(a.Questions, "能详细描述一下您的运动情况吗？")
	}
	if len(a.Questions) > maxQuestions {
		a.Questions = a.Questions[:maxQuestions]
	}
	return a
}

// DietFallbackQuestions is the fixed question set used when the food
// extractor flags clarification without supplying questions of its own, or
// when its response is malformed.
func DietFallbackQuestions() []string {
	return []string{
		"您吃的具体是什么食物？",
		"大概吃了多少？（如：一碗、200克）",
		"烹饪方式是什么？（如：清蒸、炒、油炸）",
	}
}

// DietVerdict interprets the food extractor's clarity output: anything
// below clarity 3 or an explicit flag asks for more detail, capped at three
// questions with the fallback set filling a missing list.
func DietVerdict(clarityScore int, needsClarification bool, questions []string) (bool, []string) {
	if clarityScore >= 3 && !needsClarification {
		return false, nil
	}
	if len(questions) == 0 {
		questions = DietFallbackQuestions()
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return true, questions
}
