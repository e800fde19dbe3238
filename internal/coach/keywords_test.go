package coach

import (
	"testing"

	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
	"github.com/stretchr/testify/assert"
)

func TestVocabulary(t *testing.T) {
	receipts := []model.Receipt{
		{Items: []model.LineItem{{Name: "Spinach"}, {Name: "  "}, {Name: "EGGS"}}},
		{Items: []model.LineItem{{Name: "spinach"}}},
	}
	table := nutrition.NewTable(model.NutritionFacts{Item: "Oats"}, model.NutritionFacts{Item: "Eggs"})

	assert.Equal(t, []string{"eggs", "oats", "spinach"}, Vocabulary(receipts, table))
	assert.Empty(t, Vocabulary(nil, nil))
}

func TestClassify(t *testing.T) {
	vocab := []string{"milk", "rice"}

	tests := []struct {
		question    string
		wantIntent  Intent
		wantMatched []string
	}{
		{question: "WHAT IS MY BUDGET", wantIntent: IntentFinance},
		{question: "compare milk and rice prices", wantIntent: IntentFinance, wantMatched: []string{"milk", "rice"}},
		{question: "cooking ideas for rice", wantIntent: IntentGrocery, wantMatched: []string{"rice"}},
		{question: "what is the meaning of life", wantIntent: IntentGeneral},
		{question: "", wantIntent: IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			intent, matched := Classify(tt.question, vocab, MatchOptions{})
			assert.Equal(t, tt.wantIntent, intent)
			assert.Equal(t, tt.wantMatched, matched)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	vocab := []string{"zucchini", "apple", "milk"}
	for i := 0; i < 20; i++ {
		_, matched := Classify("milk, apple or zucchini?", vocab, MatchOptions{})
		assert.Equal(t, []string{"apple", "milk", "zucchini"}, matched)
	}
}

func TestSpendHelpers(t *testing.T) {
	receipts := []model.Receipt{
		{TotalAmount: 12.50, Category: "Grocery"},
		{TotalAmount: 7.25, Category: ""},
		{TotalAmount: 0.0, Category: "Grocery"},
	}

	assert.InDelta(t, 19.75, TotalSpend(receipts), 1e-12)
	assert.Equal(t, []CategoryTotal{
		{Category: "Grocery", Total: 12.50},
		{Category: "Other", Total: 7.25},
	}, SpendByCategory(receipts))

	assert.Zero(t, EstimatedSavings(1000, 1200))
	assert.InDelta(t, 250, EstimatedSavings(1000, 750), 1e-9)
	assert.Empty(t, SpendByCategory(nil))
}

func TestSummarizeReceipts(t *testing.T) {
	assert.Equal(t, NoItemsText, SummarizeReceipts(nil))
	assert.Equal(t, NoItemsText, SummarizeReceipts([]model.Receipt{{MerchantName: "Empty"}}))
	assert.Equal(t, "3 x Apple, 1 x Bread",
		SummarizeReceipts([]model.Receipt{{Items: []model.LineItem{{Name: "Apple", Quantity: 3}, {Name: "Bread"}}}}))
}

func TestNutritionExcerpt(t *testing.T) {
	text, n := NutritionExcerpt(nil, 30)
	assert.Equal(t, NoNutritionTableText, text)
	assert.Zero(t, n)

	table := nutrition.NewTable(
		model.NutritionFacts{Item: "Tofu", Protein: 8, Fiber: 0.3, Calories: 76},
		model.NutritionFacts{Item: "Kale", Protein: 2.9, Fiber: 4.1, Calories: 49},
	)
	text, n = NutritionExcerpt(table, 1)
	assert.Equal(t, "Tofu (Protein: 8g, Fiber: 0.3g, Calories: 76)", text)
	assert.Equal(t, 1, n)
}
