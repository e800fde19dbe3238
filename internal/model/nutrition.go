package model

import "fmt"

// NutritionFacts holds macro-nutrient reference values for one item.
type NutritionFacts struct {
	Item     string  `json:"item"`
	Protein  float64 `json:"protein"`
	Fiber    float64 `json:"fiber"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// NutritionalSummary accumulates nutrition totals over purchased items.
type NutritionalSummary struct {
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	TotalFiber    float64 `json:"total_fiber"`
	ItemCount     int     `json:"item_count"`
}

// Add accumulates facts for the given number of units.
func (s *NutritionalSummary) Add(facts NutritionFacts, units int) {
	q := float64(units)
	s.TotalCalories += facts.Calories * q
	s.TotalProtein += facts.Protein * q
	s.TotalCarbs += facts.Carbs * q
	s.TotalFat += facts.Fat * q
	s.TotalFiber += facts.Fiber * q
	s.ItemCount += units
}

// IsEmpty reports whether no items have been recorded.
func (s NutritionalSummary) IsEmpty() bool {
	return s.ItemCount == 0
}

// Formatted returns the totals rounded to two decimals, keyed like the JSON fields.
func (s NutritionalSummary) Formatted() map[string]string {
	return map[string]string{
		"total_calories": fmt.Sprintf("%.2f", s.TotalCalories),
		"total_protein":  fmt.Sprintf("%.2f", s.TotalProtein),
		"total_carbs":    fmt.Sprintf("%.2f", s.TotalCarbs),
		"total_fat":      fmt.Sprintf("%.2f", s.TotalFat),
		"total_fiber":    fmt.Sprintf("%.2f", s.TotalFiber),
		"item_count":     fmt.Sprintf("%d", s.ItemCount),
	}
}
