package insights

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Veraticus/raseed/internal/coach"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

const (
	// DashboardRecentLimit caps the recent receipts shown on the dashboard.
	DashboardRecentLimit = 10
	// MinutesSavedPerEmail estimates manual entry time avoided per email receipt.
	MinutesSavedPerEmail = 3
)

// Window is a nutrition summary over receipts added since a cutoff.
type Window struct {
	Label    string
	Summary  model.NutritionalSummary
	Receipts int
}

// Dashboard is the combined overview across every receipt source.
type Dashboard struct {
	Recent         []model.Receipt
	Categories     []coach.CategoryTotal
	Insights       []model.SpendingInsight
	Windows        []Window
	Latest         *model.Receipt
	LatestSummary  model.NutritionalSummary
	History        model.PurchaseHistory
	TotalSpend     float64
	TotalReceipts  int
	ManualReceipts int
	EmailReceipts  int
}

// HoursSaved estimates time saved by email import.
func (d Dashboard) HoursSaved() float64 {
	return float64(d.EmailReceipts*MinutesSavedPerEmail) / 60
}

// Monthly returns the widest nutrition window, or an empty summary.
func (d Dashboard) Monthly() model.NutritionalSummary {
	if len(d.Windows) == 0 {
		return model.NutritionalSummary{}
	}
	return d.Windows[len(d.Windows)-1].Summary
}

// AddedAt is when a receipt entered the store, falling back to its date.
func AddedAt(r model.Receipt) time.Time {
	if r.CreatedAt.IsZero() {
		return r.Date
	}
	return r.CreatedAt
}

// BuildDashboard aggregates receipts into a Dashboard. Nutrition windows
// cover receipts added within 7 and 30 days of now.
func BuildDashboard(ctx context.Context, receipts []model.Receipt, resolver *nutrition.Resolver, now time.Time) Dashboard {
	d := Dashboard{
		TotalReceipts: len(receipts),
		TotalSpend:    coach.TotalSpend(receipts),
		Categories:    coach.SpendByCategory(receipts),
		Insights:      Spending(receipts, now),
		History:       History(receipts),
	}
	for _, r := range receipts {
		if r.Source == model.SourceEmail {
			d.EmailReceipts++
		} else {
			d.ManualReceipts++
		}
	}

	sorted := make([]model.Receipt, len(receipts))
	copy(sorted, receipts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return AddedAt(sorted[i]).After(AddedAt(sorted[j]))
	})
	d.Recent = sorted[:min(len(sorted), DashboardRecentLimit)]

	if len(sorted) > 0 {
		latest := sorted[0]
		d.Latest = &latest
		d.LatestSummary = nutrition.Summarize(ctx, []model.Receipt{latest}, resolver)
	}

	for _, w := range []struct {
		label string
		days  int
	}{{"Last 7 days", 7}, {"Last 30 days", 30}} {
		cutoff := now.AddDate(0, 0, -w.days)
		var in []model.Receipt
		for _, r := range sorted {
			if !AddedAt(r).Before(cutoff) {
				in = append(in, r)
			}
		}
		d.Windows = append(d.Windows, Window{
			Label:    w.label,
			Summary:  nutrition.Summarize(ctx, in, resolver),
			Receipts: len(in),
		})
	}

	return d
}

// Combined pairs insights on nutrition alone with insights informed by
// purchase history.
type Combined struct {
	Current    []string
	Historical []string
}

// Combined generates both insight sets for a summary. An empty summary
// yields StartLoggingMessage without calling the model. Each set fails
// over to FailureMessage independently; err joins the causes.
func (a *Advisor) Combined(ctx context.Context, summary model.NutritionalSummary, history model.PurchaseHistory) (Combined, error) {
	if summary.IsEmpty() {
		return Combined{Current: []string{StartLoggingMessage}}, nil
	}

	current, curErr := a.Generate(ctx, summary, model.PurchaseHistory{})
	historical, histErr := a.Generate(ctx, summary, history)
	return Combined{Current: current, Historical: historical}, errors.Join(curErr, histErr)
}
