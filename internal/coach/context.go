package coach

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

// Placeholder texts used when context is missing.
const (
	NoItemsText          = "No items found."
	NoNutritionTableText = "Nutrition database not available."
)

// CategoryTotal is the summed spend of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// TotalSpend sums receipt totals in order.
func TotalSpend(receipts []model.Receipt) float64 {
	var total float64
	for _, r := range receipts {
		total += r.TotalAmount
	}
	return total
}

// SpendByCategory sums totals per category, highest spend first. Receipts
// without a category count as model.DefaultCategory.
func SpendByCategory(receipts []model.Receipt) []CategoryTotal {
	sums := make(map[string]float64)
	for _, r := range receipts {
		sums[r.CategoryOrDefault()] += r.TotalAmount
	}

	out := make([]CategoryTotal, 0, len(sums))
	for category, total := range sums {
		out = append(out, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// EstimatedSavings is the unspent part of budget, never negative.
func EstimatedSavings(budget, totalSpend float64) float64 {
	return math.Max(0, budget-totalSpend)
}

// SummarizeReceipts lists every line item as "<qty> x <name>".
func SummarizeReceipts(receipts []model.Receipt) string {
	var items []string
	for _, r := range receipts {
		for _, item := range r.Items {
			items = append(items, fmt.Sprintf("%d x %s", item.Units(), item.Name))
		}
	}
	if len(items) == 0 {
		return NoItemsText
	}
	return strings.Join(items, ", ")
}

// NutritionExcerpt renders at most limit table rows in file order. It
// returns the number of rows rendered alongside the text.
func NutritionExcerpt(table *nutrition.Table, limit int) (string, int) {
	if !table.Available() {
		return NoNutritionTableText, 0
	}

	rows := table.Rows()
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, fmt.Sprintf("%s (Protein: %sg, Fiber: %sg, Calories: %s)",
			row.Item,
			nutrition.FormatNumber(row.Protein),
			nutrition.FormatNumber(row.Fiber),
			nutrition.FormatNumber(row.Calories)))
	}
	return strings.Join(parts, "; "), len(rows)
}

func formatCategories(totals []CategoryTotal) string {
	if len(totals) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(totals))
	for _, ct := range totals {
		parts = append(parts, fmt.Sprintf("%s: %s", ct.Category, formatAmount(ct.Total)))
	}
	return strings.Join(parts, ", ")
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
