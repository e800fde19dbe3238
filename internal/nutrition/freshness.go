package nutrition

import (
	"strings"

	"github.com/Veraticus/raseed/internal/model"
)

// ProcessedKeywords mark an item name as processed food.
var ProcessedKeywords = []string{"instant", "frozen", "canned", "packaged", "microwave", "ready-to-eat"}

// Freshness splits purchased units into whole and processed food.
type Freshness struct {
	WholeFoodCount     int     `json:"whole_food_count"`
	ProcessedFoodCount int     `json:"processed_food_count"`
	FreshnessScore     float64 `json:"freshness_score"`
}

// IsProcessed reports whether name contains a processed-food keyword.
func IsProcessed(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range ProcessedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClassifyFreshness counts units across all receipt items. The score is the
// whole-food share as a percentage, zero when nothing was bought.
func ClassifyFreshness(receipts []model.Receipt) Freshness {
	var f Freshness
	for _, r := range receipts {
		for _, item := range r.Items {
			if IsProcessed(item.Name) {
				f.ProcessedFoodCount += item.Units()
			} else {
				f.WholeFoodCount += item.Units()
			}
		}
	}
	if total := f.WholeFoodCount + f.ProcessedFoodCount; total > 0 {
		f.FreshnessScore = float64(f.WholeFoodCount) / float64(total) * 100
	}
	return f
}

type mealRule struct {
	suggestion  string
	ingredients []string
}

var mealRules = []mealRule{
	{
		ingredients: []string{"chicken", "rice", "broccoli"},
		suggestion:  "How about making a healthy teriyaki stir-fry with chicken, rice, and broccoli?",
	},
	{
		ingredients: []string{"eggs", "spinach"},
		suggestion:  "Try a spinach and egg omelette for a nutritious breakfast.",
	},
	{
		ingredients: []string{"avocado", "bread"},
		suggestion:  "Make a delicious avocado toast for a quick snack.",
	},
}

// MealSuggestions proposes meals whose ingredients all appear, by exact
// case-insensitive item name, among the purchased items.
func MealSuggestions(receipts []model.Receipt) []string {
	have := make(map[string]struct{})
	for _, r := range receipts {
		for _, item := range r.Items {
			have[strings.ToLower(strings.TrimSpace(item.Name))] = struct{}{}
		}
	}

	var suggestions []string
	for _, rule := range mealRules {
		ok := true
		for _, ing := range rule.ingredients {
			if _, found := have[ing]; !found {
				ok = false
				break
			}
		}
		if ok {
			suggestions = append(suggestions, rule.suggestion)
		}
	}
	return suggestions
}
