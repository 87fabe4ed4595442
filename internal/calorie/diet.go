package calorie

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"healthdaily/internal/record"
)

// FoodItem is one decomposed food component as returned by the analyzer.
type FoodItem struct {
	Name             string  `json:"name"`
	EstimatedWeightG float64 `json:"estimated_weight_g"`
	CookingMethod    string  `json:"cooking_method"`
}

// FoodAnalysis is the structured decomposition of a free-text food
// description. ClarityScore runs 1 (guesswork) to 5 (fully specified).
type FoodAnalysis struct {
	FoodItems          []FoodItem `json:"food_items"`
	PortionSize        string     `json:"portion_size"`
	SauceLevel         string     `json:"sauce_level"`
	ClarityScore       int        `json:"clarity_score"`
	NeedsClarification bool       `json:"needs_clarification"`
	Questions          []string   `json:"clarification_questions,omitempty"`
}

type foodNutrition struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// baseFoodDB holds nutrition per 100 grams of the raw ingredient.
var baseFoodDB = map[string]foodNutrition{
	"米饭":  {116, 2.6, 25.9, 0.3},
	"白米饭": {116, 2.6, 25.9, 0.3},
	"面条":  {138, 4.5, 28.0, 0.7},
	"鸡蛋":  {155, 13.0, 1.1, 11.0},
	"鸡胸肉": {165, 31.0, 0.0, 3.6},
	"牛肉":  {250, 26.0, 0.0, 15.0},
	"猪肉":  {242, 27.0, 0.0, 14.0},
	"鱼":   {130, 22.0, 0.0, 4.0},
	"苹果":  {52, 0.3, 13.8, 0.2},
	"香蕉":  {89, 1.1, 22.8, 0.3},
	"牛奶":  {54, 3.3, 5.0, 3.2},
	"面包":  {265, 9.0, 49.0, 3.2},
	"蔬菜":  {25, 2.0, 5.0, 0.5},
	"土豆":  {77, 2.0, 17.0, 0.1},
	"豆腐":  {76, 8.1, 4.2, 4.8},
	"番茄":  {18, 0.9, 3.9, 0.2},
	"鸡肉":  {165, 31.0, 0.0, 3.6},
	"虾":   {85, 18.0, 0.0, 1.0},
	"玉米":  {86, 3.3, 19.0, 1.2},
	"燕麦":  {389, 16.9, 66.0, 6.9},
}

// foodKeywordFallbacks route an unknown name to a representative base food
// by single-character hints. Ordered so more specific hints win.
var foodKeywordFallbacks = []struct {
	keyword string
	food    string
}{
	{"饭", "米饭"}, {"面", "面条"}, {"蛋", "鸡蛋"}, {"奶", "牛奶"},
	{"包", "面包"}, {"豆", "豆腐"}, {"鱼", "鱼"}, {"虾", "虾"},
	{"鸡", "鸡肉"}, {"牛", "牛肉"}, {"猪", "猪肉"}, {"肉", "鸡肉"},
	{"菜", "蔬菜"}, {"果", "苹果"},
}

var defaultNutrition = foodNutrition{100, 5, 10, 5}

// cookingCoefficients scale calories by preparation method.
var cookingCoefficients = map[string]float64{
	"蒸": 1.0, "清蒸": 1.0, "煮": 1.1, "水煮": 1.1, "白灼": 1.1,
	"炒": 1.5, "快炒": 1.5, "煎": 1.6, "炸": 2.0, "油炸": 2.0,
	"烤": 1.3, "红烧": 1.8, "炖": 1.4, "烧烤": 1.4, "烩": 1.3,
	"凉拌": 1.0, "生吃": 1.0,
}

const defaultCookingCoefficient = 1.2

// portionCoefficients scale the whole meal.
var portionCoefficients = map[string]float64{
	"小": 0.7, "小份": 0.7, "少量": 0.7, "一点点": 0.5,
	"中": 1.0, "正常": 1.0, "标准": 1.0, "普通": 1.0,
	"大": 1.3, "大份": 1.3, "大量": 1.3, "很多": 1.5,
	"特大": 1.5, "超大": 1.5,
}

// sauceCoefficients scale calories and fat only.
var sauceCoefficients = map[string]float64{
	"少": 0.9, "清淡": 0.9, "无": 0.8, "微": 0.9,
	"正常": 1.0, "标准": 1.0, "适中": 1.0,
	"多": 1.2, "加量": 1.2, "浓": 1.2, "重": 1.3,
}

// restaurantDishes holds fixed whole-dish calories keyed by vendor then dish
// substring. Macros for these are derived from a 15/50/35 calorie split.
var restaurantDishes = map[string]map[string]int{
	"麦当劳": {
		"巨无霸": 540, "麦辣鸡腿堡": 440, "薯条": 330,
		"可乐": 150, "麦辣鸡翅": 210, "麦香鱼": 350,
	},
	"肯德基": {
		"香辣鸡腿堡": 450, "新奥尔良烤鸡腿堡": 420, "薯条": 320,
		"上校鸡块": 280, "蛋挞": 230,
	},
	"星巴克": {
		"拿铁": 150, "美式咖啡": 10, "焦糖玛奇朵": 250, "抹茶星冰乐": 350,
	},
	"家常菜": {
		"番茄炒蛋": 180, "宫保鸡丁": 350, "鱼香肉丝": 320,
		"麻婆豆腐": 280, "青椒肉丝": 300, "炒青菜": 120,
	},
}

func lookupRestaurantDish(name string) (int, bool) {
	for vendor, menu := range restaurantDishes {
		if vendor != "家常菜" && !strings.Contains(name, vendor) {
			continue
		}
		for dish, cal := range menu {
			if strings.Contains(name, dish) {
				return cal, true
			}
		}
	}
	return 0, false
}

// baseFoodKeys fixes partial-match order so lookups are deterministic.
var baseFoodKeys = func() []string {
	keys := make([]string, 0, len(baseFoodDB))
	for k := range baseFoodDB {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

func lookupBaseFood(name string) foodNutrition {
	if n, ok := baseFoodDB[name]; ok {
		return n
	}
	for _, key := range baseFoodKeys {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return baseFoodDB[key]
		}
	}
	for _, fb := range foodKeywordFallbacks {
		if strings.Contains(name, fb.keyword) {
			return baseFoodDB[fb.food]
		}
	}
	return defaultNutrition
}

// macro calorie densities: protein/carbs 4 kcal per gram, fat 9.
const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

// EstimateDiet computes the meal's nutrition from a decomposed analysis.
// Per-item values go through dish lookup or per-100g scaling with the cooking
// coefficient; the summed totals then take the portion coefficient on
// everything and the sauce coefficient on calories and fat.
func EstimateDiet(analysis FoodAnalysis) record.Nutrition {
	var (
		totalCal, totalProtein, totalCarbs, totalFat float64
		items                                        []record.NutritionItem
	)
	for _, item := range analysis.FoodItems {
		cooking := item.CookingMethod
		if cooking == "" {
			cooking = "炒"
		}
		if cal, ok := lookupRestaurantDish(item.Name); ok {
			c := float64(cal)
			p := c * 0.15 / kcalPerGramProtein
			cb := c * 0.5 / kcalPerGramCarbs
			f := c * 0.35 / kcalPerGramFat
			items = append(items, record.NutritionItem{
				Name: item.Name, Source: "dish-lookup", Calories: cal,
				ProteinG: round1(p), CarbsG: round1(cb), FatG: round1(f),
			})
			totalCal += c
			totalProtein += p
			totalCarbs += cb
			totalFat += f
			continue
		}
		base := lookupBaseFood(item.Name)
		weight := item.EstimatedWeightG
		if weight <= 0 {
			weight = 100
		}
		coef, ok := cookingCoefficients[cooking]
		if !ok {
			coef = defaultCookingCoefficient
		}
		c := base.Calories * weight / 100 * coef
		p := base.Protein * weight / 100
		cb := base.Carbs * weight / 100
		f := base.Fat * weight / 100
		items = append(items, record.NutritionItem{
			Name: item.Name, WeightG: weight, CookingMethod: cooking,
			Source: "base-table", Calories: int(math.Round(c)),
			ProteinG: round1(p), CarbsG: round1(cb), FatG: round1(f),
		})
		totalCal += c
		totalProtein += p
		totalCarbs += cb
		totalFat += f
	}

	portionCoef := coefficient(portionCoefficients, analysis.PortionSize, 1.0)
	sauceCoef := coefficient(sauceCoefficients, analysis.SauceLevel, 1.0)
	totalCal *= portionCoef * sauceCoef
	totalProtein *= portionCoef
	totalCarbs *= portionCoef
	totalFat *= portionCoef * sauceCoef

	lo, hi, accuracy := clarityBand(analysis.ClarityScore)
	return record.Nutrition{
		TotalCalories: int(math.Round(totalCal)),
		CalorieRange:  fmt.Sprintf("%d-%d", int(math.Round(totalCal*lo)), int(math.Round(totalCal*hi))),
		Accuracy:      accuracy,
		ProteinG:      round1(totalProtein),
		CarbsG:        round1(totalCarbs),
		FatG:          round1(totalFat),
		Items:         items,
	}
}

func coefficient(table map[string]float64, key string, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}

// clarityBand maps the 1-5 clarity score onto an accuracy label and the
// multiplicative bounds of the calorie range (±30% down to ±10%).
func clarityBand(score int) (lo, hi float64, accuracy string) {
	switch {
	case score <= 2:
		return 0.7, 1.3, "low"
	case score == 3:
		return 0.8, 1.2, "medium"
	default:
		return 0.9, 1.1, "high"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
