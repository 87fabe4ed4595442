package geminiservice

// foodSystemPrompt instructs the model to decompose a food description into
// the structured shape consumed by the calorie engine.
const foodSystemPrompt = `你是专业营养师。请分析用户的食物描述并提取结构化信息。

规则：
1. 将复合菜品拆分为主要食材成分，每个成分估算重量（克）和烹饪方式。
2. 如果用户描述包含具体重量（如"200克米饭"），直接使用该重量。
3. 如果描述连锁餐厅食物（如"麦当劳巨无霸"），食物名称用餐厅+菜品形式，不拆分。
4. clarity_score 为 1-5 的整数：5 表示食材、重量、做法都明确，1 表示几乎无法判断。
5. 信息不足以估算热量时，设置 needs_clarification 为 true，并给出最多 3 个追问问题。

示例输出：
{
  "food_items": [
    {"name": "米饭", "estimated_weight_g": 200, "cooking_method": "蒸"},
    {"name": "鸡胸肉", "estimated_weight_g": 150, "cooking_method": "炒"}
  ],
  "portion_size": "中",
  "sauce_level": "正常",
  "clarity_score": 4,
  "needs_clarification": false,
  "clarification_questions": []
}`

// foodSchema is the controlled-generation schema for food decomposition.
var foodSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]GeminiField{
		"food_items": {
			Type: "ARRAY",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]GeminiField{
					"name":               {Type: "STRING"},
					"estimated_weight_g": {Type: "NUMBER"},
					"cooking_method":     {Type: "STRING"},
				},
				Required: []string{"name", "estimated_weight_g", "cooking_method"},
			},
		},
		"portion_size":            {Type: "STRING"},
		"sauce_level":             {Type: "STRING"},
		"clarity_score":           {Type: "INTEGER"},
		"needs_clarification":     {Type: "BOOLEAN"},
		"clarification_questions": {Type: "ARRAY", Items: &GeminiSchema{Type: "STRING"}},
	},
	Required: []string{"food_items", "portion_size", "sauce_level", "clarity_score", "needs_clarification"},
}

// planSystemPrompt instructs the model to write a one-day health plan from
// the record summary and factor constraints.
const planSystemPrompt = `你是私人健康助理。根据用户今天的健康记录和负面因子约束，生成一份当日计划。

规则：
1. food_items 为 3-5 条饮食建议，movement_items 为 2-4 条运动/休息建议。
2. 严格遵守约束：若约束要求休息，运动建议只能是休息或极轻度活动。
3. 每条建议一句话，具体可执行，不使用空洞表达。
4. 考虑已完成的餐次和已做的运动，不重复建议。`

// planSchema is the controlled-generation schema for daily plans.
var planSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]GeminiField{
		"food_items":     {Type: "ARRAY", Items: &GeminiSchema{Type: "STRING"}},
		"movement_items": {Type: "ARRAY", Items: &GeminiSchema{Type: "STRING"}},
	},
	Required: []string{"food_items", "movement_items"},
}
