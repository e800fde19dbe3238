package nutrition

import (
	"context"
	"strings"

	"github.com/Veraticus/raseed/internal/model"
)

// FilterGroceryItems returns the line items of grocery receipts, unique by
// lowercased name and price, in first-seen order.
func FilterGroceryItems(receipts []model.Receipt) []model.LineItem {
	type key struct {
		name  string
		price float64
	}

	var items []model.LineItem
	seen := make(map[key]struct{})
	for _, r := range receipts {
		if !strings.Contains(strings.ToLower(r.Category), "grocery") {
			continue
		}
		for _, item := range r.Items {
			k := key{name: strings.ToLower(item.Name), price: item.Price}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

// Summarize totals nutrition over the grocery items of receipts, scaled by
// purchased quantity.
func Summarize(ctx context.Context, receipts []model.Receipt, resolver *Resolver) model.NutritionalSummary {
	var summary model.NutritionalSummary
	for _, item := range FilterGroceryItems(receipts) {
		if ctx.Err() != nil {
			break
		}
		summary.Add(resolver.Facts(ctx, item.Name), item.Units())
	}
	return summary
}
