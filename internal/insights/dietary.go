package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/llm"
	"github.com/Veraticus/raseed/internal/model"
)

// Fixed dietary insight texts.
const (
	StartLoggingMessage = "Start logging your groceries to receive personalized dietary insights!"
	FailureMessage      = "Sorry, we couldn't generate insights due to an internal error."
)

const dietarySystemPrompt = "You are a helpful and encouraging AI Dietician for Project Raseed. " +
	"Your goal is to provide actionable, positive, and non-judgmental advice based on the user's weekly nutritional intake " +
	"and their real purchase history. Use their most frequent items and categories, and mention any spending trends if relevant. " +
	"Do not give medical advice. Frame your response as a helpful coach. " +
	`Return the insights as a JSON array of strings, like ["Insight 1", "Insight 2"].`

// Advisor asks a model for dietary advice grounded in nutrition totals
// and purchase history.
type Advisor struct {
	client llm.Client
	logger *slog.Logger
	model  string
}

// NewAdvisor creates an advisor. A nil client makes every call fail over
// to FailureMessage.
func NewAdvisor(client llm.Client, model string, logger *slog.Logger) *Advisor {
	return &Advisor{
		client: client,
		model:  model,
		logger: common.ComponentLogger(logger, "dietary"),
	}
}

// Generate returns two or three insights. An empty summary yields
// StartLoggingMessage without calling the model. On failure the returned
// slice holds FailureMessage and err describes the cause.
func (a *Advisor) Generate(ctx context.Context, summary model.NutritionalSummary, history model.PurchaseHistory) ([]string, error) {
	if summary.IsEmpty() {
		return []string{StartLoggingMessage}, nil
	}
	if a.client == nil {
		return []string{FailureMessage}, fmt.Errorf("dietary insights: %w", common.ErrMissingCredential)
	}

	resp, err := a.client.Send(ctx, llm.Request{
		System: dietarySystemPrompt,
		Prompt: dietaryPrompt(summary, history),
		Model:  a.model,
	})
	if err != nil {
		a.logger.Error("failed to generate dietary insights", "error", err)
		return []string{FailureMessage}, fmt.Errorf("%w: %w", common.ErrDelegationFailed, err)
	}

	var out []string
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp.Text)), &out); err != nil {
		a.logger.Error("failed to parse dietary insights", "error", err, "response", resp.Text)
		return []string{FailureMessage}, fmt.Errorf("failed to parse dietary insights: %w", err)
	}

	cleaned := out[:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return []string{FailureMessage}, fmt.Errorf("dietary insights: %w", llm.ErrEmptyResponse)
	}
	return cleaned, nil
}

func dietaryPrompt(summary model.NutritionalSummary, history model.PurchaseHistory) string {
	var b strings.Builder
	b.WriteString("Here is the user's nutritional summary for the past week:\n")
	fmt.Fprintf(&b, "- Calories: %.0f kcal\n", summary.TotalCalories)
	fmt.Fprintf(&b, "- Protein: %.1f g\n", summary.TotalProtein)
	fmt.Fprintf(&b, "- Carbohydrates: %.1f g\n", summary.TotalCarbs)
	fmt.Fprintf(&b, "- Fat: %.1f g\n", summary.TotalFat)
	fmt.Fprintf(&b, "- Fiber: %.1f g\n\n", summary.TotalFiber)
	fmt.Fprintf(&b, "Most frequently purchased items: %s\n", strings.Join(Names(history.TopItems), ", "))
	fmt.Fprintf(&b, "Most common categories: %s\n", strings.Join(Names(history.TopCategories), ", "))
	fmt.Fprintf(&b, "Recent spending trend: %s\n\n", RecentTrend(history, 3))
	b.WriteString("Please provide 2-3 encouraging and actionable insights based on this data and the user's real purchase history. Return only the JSON array.")
	return b.String()
}
