package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/raseed/internal/insights"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

const shortIDLength = 8

// ShortID trims a receipt ID for display.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

// ReceiptTable renders receipts one per row.
func ReceiptTable(receipts []model.Receipt) string {
	if len(receipts) == 0 {
		return SubtleStyle.Render("No receipts found.")
	}

	t := newTable("ID", "Date", "Merchant", "Category", "Items", "Total")
	var total float64
	for _, r := range receipts {
		t.Row(
			ShortID(r.ID),
			r.Date.Format("2006-01-02"),
			r.MerchantName,
			r.CategoryOrDefault(),
			fmt.Sprintf("%d", len(r.Items)),
			fmt.Sprintf("$%.2f", r.TotalAmount),
		)
		total += r.TotalAmount
	}

	footer := BoldStyle.Render(fmt.Sprintf("%d receipts, $%.2f total", len(receipts), total))
	return t.Render() + "\n" + footer
}

// ReceiptDetail renders a single receipt with its items and model notes.
func ReceiptDetail(r model.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", BoldStyle.Render("Merchant:"), r.MerchantName)
	fmt.Fprintf(&b, "%s      %s\n", BoldStyle.Render("Date:"), r.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s  %s\n", BoldStyle.Render("Category:"), r.CategoryOrDefault())
	fmt.Fprintf(&b, "%s    %s\n", BoldStyle.Render("Source:"), r.Source)
	fmt.Fprintf(&b, "%s     $%.2f\n", BoldStyle.Render("Total:"), r.TotalAmount)

	if len(r.Items) > 0 {
		t := newTable("Item", "Qty", "Price")
		for _, item := range r.Items {
			t.Row(item.Name, fmt.Sprintf("%d", item.Units()), fmt.Sprintf("$%.2f", item.Price))
		}
		b.WriteString("\n" + t.Render() + "\n")
	}

	writeList(&b, "Insights", TipIcon, r.Insights)
	writeList(&b, "Savings suggestions", SuccessIcon, r.SavingsSuggestions)

	return RenderBox(ReceiptIcon+" Receipt "+ShortID(r.ID), strings.TrimRight(b.String(), "\n"))
}

func writeList(b *strings.Builder, title, icon string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", BoldStyle.Render(title+":"))
	for _, line := range lines {
		fmt.Fprintf(b, "  %s %s\n", icon, line)
	}
}

func insightIcon(kind model.InsightType) (string, lipgloss.Style) {
	switch kind {
	case model.InsightWarning:
		return WarningIcon, WarningStyle
	case model.InsightAchievement:
		return AchievementIcon, SuccessStyle
	default:
		return TipIcon, InfoStyle
	}
}

// InsightList renders spending insights with an icon per type.
func InsightList(insights []model.SpendingInsight) string {
	if len(insights) == 0 {
		return SubtleStyle.Render("No spending insights yet. Add a few receipts first.")
	}

	var b strings.Builder
	for i, in := range insights {
		if i > 0 {
			b.WriteString("\n")
		}
		icon, style := insightIcon(in.Type)
		fmt.Fprintf(&b, "%s\n", style.Render(icon+" "+in.Title))
		fmt.Fprintf(&b, "  %s\n", in.Description)
		if in.Suggestion != "" {
			fmt.Fprintf(&b, "  %s\n", SubtleStyle.Render(in.Suggestion))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// HistoryView renders purchase history: top items, categories and monthly spend.
func HistoryView(history model.PurchaseHistory) string {
	var b strings.Builder

	b.WriteString(BoldStyle.Render("Top items:") + "\n")
	writeRanked(&b, history.TopItems)
	b.WriteString(BoldStyle.Render("Top categories:") + "\n")
	writeRanked(&b, history.TopCategories)

	b.WriteString(BoldStyle.Render("Monthly spending:") + "\n")
	months := make([]string, 0, len(history.MonthlySpending))
	for m := range history.MonthlySpending {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) == 0 {
		b.WriteString("  " + SubtleStyle.Render("none") + "\n")
	}
	for _, m := range months {
		fmt.Fprintf(&b, "  %s  $%.2f\n", m, history.MonthlySpending[m])
	}

	return RenderBox(ChartIcon+" Purchase history", strings.TrimRight(b.String(), "\n"))
}

func writeRanked(b *strings.Builder, ranked []model.RankedName) {
	if len(ranked) == 0 {
		b.WriteString("  " + SubtleStyle.Render("none") + "\n")
		return
	}
	for i, r := range ranked {
		fmt.Fprintf(b, "  %d. %s (%d)\n", i+1, r.Name, r.Count)
	}
}

// NutritionView renders nutrition totals, freshness and meal ideas.
func NutritionView(summary model.NutritionalSummary, freshness nutrition.Freshness, meals []string) string {
	var b strings.Builder
	if summary.IsEmpty() {
		b.WriteString(SubtleStyle.Render("No grocery items found.") + "\n")
	} else {
		t := newTable("Nutrient", "Total")
		t.Row("Calories", fmt.Sprintf("%.2f", summary.TotalCalories))
		t.Row("Protein (g)", fmt.Sprintf("%.2f", summary.TotalProtein))
		t.Row("Carbs (g)", fmt.Sprintf("%.2f", summary.TotalCarbs))
		t.Row("Fat (g)", fmt.Sprintf("%.2f", summary.TotalFat))
		t.Row("Fiber (g)", fmt.Sprintf("%.2f", summary.TotalFiber))
		b.WriteString(t.Render() + "\n")
		fmt.Fprintf(&b, "%s %d\n", BoldStyle.Render("Grocery units:"), summary.ItemCount)
	}

	fmt.Fprintf(&b, "\n%s %.1f%% (%d whole, %d processed)\n",
		BoldStyle.Render("Freshness:"),
		freshness.FreshnessScore,
		freshness.WholeFoodCount,
		freshness.ProcessedFoodCount)

	writeList(&b, "Meal ideas", LeafIcon, meals)

	return RenderBox(LeafIcon+" Nutrition", strings.TrimRight(b.String(), "\n"))
}

// Recommendations renders dietary recommendations as a numbered list.
func Recommendations(recs []string) string {
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	return RenderBox(RobotIcon+" Dietary recommendations", strings.TrimRight(b.String(), "\n"))
}

// DashboardView renders the overview: counts, spend by category, recent
// receipts, spending insights and nutrition windows.
func DashboardView(d insights.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d (%d manual, %d email)\n", BoldStyle.Render("Receipts:"), d.TotalReceipts, d.ManualReceipts, d.EmailReceipts)
	fmt.Fprintf(&b, "%s $%.2f\n", BoldStyle.Render("Total spend:"), d.TotalSpend)
	if d.EmailReceipts > 0 {
		fmt.Fprintf(&b, "%s %.2f hours saved by email import\n", BoldStyle.Render("Automation:"), d.HoursSaved())
	}

	if len(d.Categories) > 0 {
		t := newTable("Category", "Spend")
		for _, c := range d.Categories {
			t.Row(c.Category, fmt.Sprintf("$%.2f", c.Total))
		}
		b.WriteString("\n" + t.Render() + "\n")
	}

	fmt.Fprintf(&b, "\n%s\n%s\n", BoldStyle.Render("Recent receipts:"), ReceiptTable(d.Recent))
	fmt.Fprintf(&b, "\n%s\n%s\n", BoldStyle.Render("Spending insights:"), InsightList(d.Insights))

	t := newTable("Nutrition", "Receipts", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Fiber (g)")
	nutritionRow := func(label string, receipts int, s model.NutritionalSummary) {
		t.Row(label, fmt.Sprintf("%d", receipts),
			fmt.Sprintf("%.2f", s.TotalCalories),
			fmt.Sprintf("%.2f", s.TotalProtein),
			fmt.Sprintf("%.2f", s.TotalCarbs),
			fmt.Sprintf("%.2f", s.TotalFat),
			fmt.Sprintf("%.2f", s.TotalFiber))
	}
	if d.Latest != nil {
		nutritionRow("Latest receipt", 1, d.LatestSummary)
	}
	for _, w := range d.Windows {
		nutritionRow(w.Label, w.Receipts, w.Summary)
	}
	b.WriteString("\n" + t.Render())

	return RenderBox(ChartIcon+" Dashboard", strings.TrimRight(b.String(), "\n"))
}

// DietaryView renders current and history-informed dietary insights.
func DietaryView(c insights.Combined) string {
	var b strings.Builder
	writeList(&b, "Current", LeafIcon, c.Current)
	writeList(&b, "From your purchase history", TipIcon, c.Historical)
	return RenderBox(RobotIcon+" Dietary insights", strings.Trim(b.String(), "\n"))
}

// Answer renders a coaching reply.
func Answer(answer string) string {
	return RenderBox(RobotIcon+" Coach", answer)
}
