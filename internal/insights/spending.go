// Package insights derives spending observations, purchase history and
// model-written dietary advice from stored receipts.
package insights

import (
	"fmt"
	"time"

	"github.com/Veraticus/raseed/internal/model"
	"github.com/google/uuid"
)

// WeeklyWarningThreshold turns the weekly insight into a warning when exceeded.
const WeeklyWarningThreshold = 200.0

const recentWindowDays = 7

// Spending returns the top-category insight and, when any receipt was
// created within the last week, a weekly total insight.
func Spending(receipts []model.Receipt, now time.Time) []model.SpendingInsight {
	if len(receipts) == 0 {
		return nil
	}

	var out []model.SpendingInsight

	if category, amount, ok := topCategory(receipts); ok {
		out = append(out, model.SpendingInsight{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Top Spending: %s", category),
			Description: fmt.Sprintf("You've spent $%.2f on %s recently", amount, category),
			Category:    category,
			Amount:      amount,
			Suggestion:  fmt.Sprintf("Consider setting a budget limit for %s expenses", category),
			Type:        model.InsightTip,
			CreatedAt:   now,
		})
	}

	var recentTotal float64
	recent := 0
	for _, r := range receipts {
		if isRecent(r.CreatedAt, now) {
			recentTotal += r.TotalAmount
			recent++
		}
	}
	if recent > 0 {
		insightType := model.InsightTip
		if recentTotal > WeeklyWarningThreshold {
			insightType = model.InsightWarning
		}
		out = append(out, model.SpendingInsight{
			ID:          uuid.NewString(),
			Title:       "This Week's Spending",
			Description: fmt.Sprintf("You've spent $%.2f in the last 7 days", recentTotal),
			Category:    "General",
			Amount:      recentTotal,
			Suggestion:  "Track daily expenses to identify spending patterns",
			Type:        insightType,
			CreatedAt:   now,
		})
	}

	return out
}

// isRecent reports whether created falls within the window, counting whole
// elapsed days.
func isRecent(created, now time.Time) bool {
	if created.IsZero() {
		return false
	}
	days := int(now.Sub(created) / (24 * time.Hour))
	return days <= recentWindowDays
}

// topCategory returns the highest-spend category. Ties go to the category
// seen first.
func topCategory(receipts []model.Receipt) (string, float64, bool) {
	sums := make(map[string]float64)
	var order []string
	for _, r := range receipts {
		c := r.CategoryOrDefault()
		if _, ok := sums[c]; !ok {
			order = append(order, c)
		}
		sums[c] += r.TotalAmount
	}
	if len(order) == 0 {
		return "", 0, false
	}

	best := order[0]
	for _, c := range order[1:] {
		if sums[c] > sums[best] {
			best = c
		}
	}
	return best, sums[best], true
}
