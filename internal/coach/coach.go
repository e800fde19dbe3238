// Package coach answers free-text dietary, grocery and spending questions.
// A question is routed to a finance, grocery or general intent, the matching
// slice of receipt and nutrition data is rendered into a prompt, and the
// prompt is sent to a language model in a single call.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/llm"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

// Fixed answers that never reach the model.
const (
	NotConfiguredMessage = "AI key not configured."
	EmptyQuestionMessage = "Please ask a question about your groceries, nutrition, or spending."
)

// SystemPrompt is sent with every coaching request.
const SystemPrompt = "You are an expert dietary, grocery, and financial assistant. " +
	"Use the user's receipts, nutrition, and spending data to answer their question. " +
	"Always be practical, specific, and concise."

const failurePrefix = "Sorry, AI coaching failed: "

// Config controls routing and the model call.
type Config struct {
	APIKey                string
	Model                 string
	MaxTokens             int
	MonthlyBudget         float64
	NutritionExcerptLimit int
	MaxQuestionRunes      int
	WordBoundary          bool
	Timeout               time.Duration
}

// DefaultConfig returns the defaults used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		Model:                 "gemini-2.0-flash",
		MaxTokens:             1024,
		MonthlyBudget:         1000,
		NutritionExcerptLimit: 30,
		MaxQuestionRunes:      2000,
		Timeout:               60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.MonthlyBudget <= 0 {
		c.MonthlyBudget = d.MonthlyBudget
	}
	if c.NutritionExcerptLimit <= 0 {
		c.NutritionExcerptLimit = d.NutritionExcerptLimit
	}
	if c.MaxQuestionRunes <= 0 {
		c.MaxQuestionRunes = d.MaxQuestionRunes
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// Plan is the routing result for one question.
type Plan struct {
	Intent       Intent          `json:"intent"`
	Question     string          `json:"question"`
	Prompt       string          `json:"prompt"`
	MatchedTerms []string        `json:"matched_terms"`
	Categories   []CategoryTotal `json:"categories,omitempty"`
	TotalSpend   float64         `json:"total_spend"`
	Savings      float64         `json:"savings"`
	ExcerptRows  int             `json:"excerpt_rows"`
	Truncated    bool            `json:"truncated"`
}

// Coach routes questions and delegates them to a model.
type Coach struct {
	client  llm.Client
	table   *nutrition.Table
	prompts *promptBuilder
	logger  *slog.Logger
	cfg     Config
}

// New creates a coach. client may be nil when no credential is configured,
// table may be nil when no nutrition reference is available.
func New(client llm.Client, table *nutrition.Table, cfg Config, logger *slog.Logger) (*Coach, error) {
	prompts, err := newPromptBuilder()
	if err != nil {
		return nil, err
	}
	return &Coach{
		client:  client,
		table:   table,
		prompts: prompts,
		logger:  common.ComponentLogger(logger, "coach"),
		cfg:     cfg.withDefaults(),
	}, nil
}

// Route classifies question and renders its prompt. It performs no I/O.
func (c *Coach) Route(question string, receipts []model.Receipt) (Plan, error) {
	question, truncated := c.normalizeQuestion(question)
	opts := MatchOptions{WordBoundary: c.cfg.WordBoundary}

	intent, matched := Classify(question, Vocabulary(receipts, c.table), opts)
	excerpt, excerptRows := NutritionExcerpt(c.table, c.cfg.NutritionExcerptLimit)

	plan := Plan{
		Intent:       intent,
		Question:     question,
		MatchedTerms: matched,
		ExcerptRows:  excerptRows,
		Truncated:    truncated,
	}
	data := promptData{
		ReceiptSummary:   SummarizeReceipts(receipts),
		NutritionExcerpt: excerpt,
		Question:         question,
		MatchedTerms:     matched,
	}
	if intent == IntentFinance {
		plan.TotalSpend = TotalSpend(receipts)
		plan.Categories = SpendByCategory(receipts)
		plan.Savings = EstimatedSavings(c.cfg.MonthlyBudget, plan.TotalSpend)
		data.TotalSpend = plan.TotalSpend
		data.Categories = plan.Categories
		data.Savings = plan.Savings
	}

	prompt, err := c.prompts.build(intent, data)
	if err != nil {
		return Plan{}, err
	}
	plan.Prompt = prompt
	return plan, nil
}

// Answer returns the model's answer to question. It never fails: missing
// credentials, empty questions and model errors all become text.
func (c *Coach) Answer(ctx context.Context, question string, receipts []model.Receipt) (answer string) {
	if c.cfg.APIKey == "" || c.client == nil {
		return NotConfiguredMessage
	}
	if strings.TrimSpace(question) == "" {
		return EmptyQuestionMessage
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("coaching panicked", "panic", r)
			answer = failurePrefix + fmt.Sprint(r)
		}
	}()

	plan, err := c.Route(question, receipts)
	if err != nil {
		c.logger.Error("failed to build coaching prompt", "error", err)
		return failurePrefix + err.Error()
	}

	c.logger.Debug("routed question",
		"intent", plan.Intent,
		"matched_terms", plan.MatchedTerms,
		"excerpt_rows", plan.ExcerptRows,
		"truncated", plan.Truncated)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Send(ctx, llm.Request{
		System:    SystemPrompt,
		Prompt:    plan.Prompt,
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("coaching call failed", "intent", plan.Intent, "error", err)
		return failurePrefix + err.Error()
	}

	c.logger.Debug("coaching answered",
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens)
	return strings.TrimSpace(resp.Text)
}

// normalizeQuestion trims the question and caps its length in runes.
func (c *Coach) normalizeQuestion(question string) (string, bool) {
	question = strings.TrimSpace(question)
	if utf8.RuneCountInString(question) <= c.cfg.MaxQuestionRunes {
		return question, false
	}
	runes := []rune(question)
	return string(runes[:c.cfg.MaxQuestionRunes]), true
}
