package geminiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthdaily/internal/calorie"
	"healthdaily/internal/clarify"
	"healthdaily/internal/factor"
	"healthdaily/internal/record"
)

// AnalyzeFood decomposes a food description. Any transport, schema or
// validation failure yields a degraded analysis that requests clarification
// instead of an error; the diet flow never crashes on collaborator failure.
func (c *Client) AnalyzeFood(ctx context.Context, foodInput string) calorie.FoodAnalysis {
	raw, err := c.callStructured(ctx, foodSystemPrompt, foodInput, foodSchema)
	if err != nil {
		c.log.Warn().Err(err).Msg("food analysis degraded to clarification fallback")
		return fallbackFoodAnalysis()
	}

	var analysis calorie.FoodAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		c.log.Warn().Err(err).Str("raw", raw).Msg("malformed food analysis response")
		return fallbackFoodAnalysis()
	}
	if len(analysis.FoodItems) == 0 {
		return fallbackFoodAnalysis()
	}
	if analysis.ClarityScore < 1 || analysis.ClarityScore > 5 {
		analysis.ClarityScore = 3
	}
	return analysis
}

// fallbackFoodAnalysis is the degraded result for collaborator failure:
// clarity 1 and the fixed question set.
func fallbackFoodAnalysis() calorie.FoodAnalysis {
	return calorie.FoodAnalysis{
		ClarityScore:       1,
		NeedsClarification: true,
		Questions:          clarify.DietFallbackQuestions(),
	}
}

// GeneratePlan writes the daily plan from the record's progress, the recent
// history summary and the factor constraints. Collaborator failure degrades
// to the fixed default plan.
func (c *Client) GeneratePlan(ctx context.Context, rec *record.DailyRecord, history string) record.DailyPlan {
	constraints := factor.ProjectConstraints(rec)
	raw, err := c.callStructured(ctx, planSystemPrompt, planPrompt(rec, history, constraints), planSchema)
	if err != nil {
		c.log.Warn().Err(err).Msg("plan generation degraded to default plan")
		return DefaultPlan(constraints)
	}
	var plan record.DailyPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		c.log.Warn().Err(err).Str("raw", raw).Msg("malformed plan response")
		return DefaultPlan(constraints)
	}
	if len(plan.FoodItems) == 0 || len(plan.MovementItems) == 0 {
		return DefaultPlan(constraints)
	}
	return plan
}

func planPrompt(rec *record.DailyRecord, history string, constraints factor.PlanConstraints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "日期：%s\n", rec.Date)
	if history != "" {
		fmt.Fprintf(&b, "近三天情况：\n%s\n", history)
	}
	fmt.Fprintf(&b, "已完成餐次：%s\n", strings.Join(rec.CompletedSlots(), "、"))
	fmt.Fprintf(&b, "饮水：%d/%d 杯\n", rec.Hydration.CurrentCups, rec.Hydration.TargetCups)
	fmt.Fprintf(&b, "运动记录：%d 条，共消耗 %d 千卡\n", len(rec.Exercise.Entries), rec.TotalCaloriesBurned())
	if len(constraints.FactorSummaries) > 0 {
		fmt.Fprintf(&b, "负面因子：%s\n", strings.Join(constraints.FactorSummaries, "；"))
	}
	if constraints.RestOnly {
		b.WriteString("约束：今天必须休息，不安排运动。\n")
	} else if constraints.AvoidStrenuous {
		b.WriteString("约束：避免剧烈运动。\n")
	}
	for _, note := range constraints.DietaryNotes {
		fmt.Fprintf(&b, "饮食注意：%s\n", note)
	}
	for _, note := range constraints.MovementNotes {
		fmt.Fprintf(&b, "运动注意：%s\n", note)
	}
	return b.String()
}

// DefaultPlan is the plan used when no generator is configured or the
// collaborator fails. It still honors the factor constraints.
func DefaultPlan(constraints factor.PlanConstraints) record.DailyPlan {
	plan := record.DailyPlan{
		FoodItems: []string{
			"三餐规律，主食粗细搭配",
			"每餐包含优质蛋白（鸡蛋、鱼或豆制品）",
			"多吃深色蔬菜，少油少盐",
			"按时喝水，目标8杯",
		},
	}
	switch {
	case constraints.RestOnly:
		plan.MovementItems = []string{"今天以休息为主", "室内少量走动即可"}
	case constraints.AvoidStrenuous:
		plan.MovementItems = []string{"散步20-30分钟", "做一组轻度拉伸"}
	default:
		plan.MovementItems = []string{"快走或慢跑30分钟", "力量训练15分钟", "睡前拉伸10分钟"}
	}
	if len(constraints.DietaryNotes) > 0 {
		plan.FoodItems = append(plan.FoodItems, constraints.DietaryNotes...)
	}
	return plan
}
