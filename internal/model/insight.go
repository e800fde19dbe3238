package model

import "time"

// InsightType classifies how a spending insight should be presented.
type InsightType string

// Insight types.
const (
	InsightWarning     InsightType = "warning"
	InsightTip         InsightType = "tip"
	InsightAchievement InsightType = "achievement"
)

// SpendingInsight is a derived observation about the user's spending.
type SpendingInsight struct {
	CreatedAt   time.Time   `json:"created_at"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Suggestion  string      `json:"suggestion"`
	Type        InsightType `json:"type"`
	Amount      float64     `json:"amount"`
}

// RankedName is a name with its occurrence count.
type RankedName struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PurchaseHistory summarizes buying habits across receipts.
type PurchaseHistory struct {
	MonthlySpending map[string]float64 `json:"monthly_spending"`
	TopItems        []RankedName       `json:"top_items"`
	TopCategories   []RankedName       `json:"top_categories"`
}
