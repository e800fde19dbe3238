package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/raseed/internal/model"
)

const (
	topItemLimit     = 5
	topCategoryLimit = 3
)

// History summarizes buying habits: most purchased items by quantity, most
// frequent categories by receipt count and spend per month.
func History(receipts []model.Receipt) model.PurchaseHistory {
	items := newCounter()
	categories := newCounter()
	monthly := make(map[string]float64)

	for _, r := range receipts {
		categories.add(r.CategoryOrDefault(), 1)

		when := r.Date
		if when.IsZero() {
			when = r.CreatedAt
		}
		if !when.IsZero() {
			monthly[when.Format("2006-01")] += r.TotalAmount
		}

		for _, item := range r.Items {
			if name := strings.TrimSpace(item.Name); name != "" {
				items.add(name, item.Units())
			}
		}
	}

	return model.PurchaseHistory{
		TopItems:        items.mostCommon(topItemLimit),
		TopCategories:   categories.mostCommon(topCategoryLimit),
		MonthlySpending: monthly,
	}
}

// RecentTrend renders the last n months of spending as "YYYY-MM: $x.xx".
func RecentTrend(history model.PurchaseHistory, n int) string {
	months := make([]string, 0, len(history.MonthlySpending))
	for m := range history.MonthlySpending {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > n {
		months = months[len(months)-n:]
	}

	parts := make([]string, 0, len(months))
	for _, m := range months {
		parts = append(parts, fmt.Sprintf("%s: $%.2f", m, history.MonthlySpending[m]))
	}
	return strings.Join(parts, ", ")
}

// Names returns the names of ranked entries in order.
func Names(ranked []model.RankedName) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Name)
	}
	return out
}

// counter tallies names and keeps first-seen order for ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string, n int) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name] += n
}

func (c *counter) mostCommon(limit int) []model.RankedName {
	ranked := make([]model.RankedName, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, model.RankedName{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
