package coach

import (
	"sort"
	"strings"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

// Intent is the routing decision for a question.
type Intent string

// Intents in precedence order.
const (
	IntentFinance Intent = "finance"
	IntentGrocery Intent = "grocery"
	IntentGeneral Intent = "general"
)

// FinanceKeywords select the finance branch when any of them occurs in a question.
var FinanceKeywords = []string{
	"spending", "expense", "expenses", "total", "breakdown", "category",
	"savings", "save", "finance", "budget", "prediction", "insight",
	"how much", "how many", "how often", "trend", "average", "cost", "price",
	"cheapest", "most expensive", "compare", "bill", "utility", "electricity",
	"water", "gas", "monthly", "weekly", "yearly", "per month", "per week",
	"per year",
}

// MatchOptions controls how keywords are found in a question.
type MatchOptions struct {
	// WordBoundary requires keywords to stand as whole words. The default
	// is plain substring matching, so "cost" also matches "costume".
	WordBoundary bool
}

func (o MatchOptions) contains(lowerText, keyword string) bool {
	if o.WordBoundary {
		return common.ContainsWord(lowerText, keyword)
	}
	return strings.Contains(lowerText, keyword)
}

// Vocabulary returns the sorted, distinct, lowercased item names found on
// receipts and in the nutrition table.
func Vocabulary(receipts []model.Receipt, table *nutrition.Table) []string {
	seen := make(map[string]struct{})
	for _, r := range receipts {
		for _, item := range r.Items {
			seen[strings.ToLower(strings.TrimSpace(item.Name))] = struct{}{}
		}
	}
	for _, key := range table.Keys() {
		seen[key] = struct{}{}
	}
	// An empty name would match every question.
	delete(seen, "")

	vocab := make([]string, 0, len(seen))
	for term := range seen {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	return vocab
}

// IsFinanceQuestion reports whether question contains a finance keyword.
func IsFinanceQuestion(question string, opts MatchOptions) bool {
	lower := strings.ToLower(question)
	for _, kw := range FinanceKeywords {
		if opts.contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchTerms returns the vocabulary entries found in question, sorted.
func MatchTerms(question string, vocabulary []string, opts MatchOptions) []string {
	lower := strings.ToLower(question)
	var matched []string
	for _, term := range vocabulary {
		if term != "" && opts.contains(lower, term) {
			matched = append(matched, term)
		}
	}
	sort.Strings(matched)
	return matched
}

// Classify decides the intent of question. Finance keywords take
// precedence over domain terms; matched terms are returned for every intent.
func Classify(question string, vocabulary []string, opts MatchOptions) (Intent, []string) {
	matched := MatchTerms(question, vocabulary, opts)
	switch {
	case IsFinanceQuestion(question, opts):
		return IntentFinance, matched
	case len(matched) > 0:
		return IntentGrocery, matched
	default:
		return IntentGeneral, matched
	}
}
