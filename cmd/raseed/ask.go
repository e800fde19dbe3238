package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/coach"
	"github.com/Veraticus/raseed/internal/config"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the coach about your groceries, diet or spending",
		Long: `Ask a single question about your most recent receipts. Questions about
money are answered with your spending totals and category breakdown;
questions naming items you bought or foods in the nutrition cache get a
grocery-focused answer; everything else gets general coaching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().Bool("explain", false, "Show how the question is routed and the prompt, without calling the model")
	cmd.Flags().Float64("budget", 0, "Monthly budget used for savings estimates (overrides coach.budget)")
	cmd.Flags().Int("limit", defaultCoachWindow, "Number of most recent receipts given to the coach (0 for all)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	explain, _ := cmd.Flags().GetBool("explain")
	budget, _ := cmd.Flags().GetFloat64("budget")
	limit, _ := cmd.Flags().GetInt("limit")
	question := strings.Join(args, " ")
	ctx := cmd.Context()
	logger := slog.Default()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	receipts, err := loadRecentReceipts(ctx, store, limit)
	if err != nil {
		return err
	}

	c, client, err := newCoach(logger, budget)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	if explain {
		plan, err := c.Route(question, receipts)
		if err != nil {
			return fmt.Errorf("failed to route question: %w", err)
		}
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Intent: %s", plan.Intent)))
		if len(plan.MatchedTerms) > 0 {
			_, _ = fmt.Fprintln(out, cli.FormatInfo("Matched: "+strings.Join(plan.MatchedTerms, ", ")))
		}
		if plan.Truncated {
			_, _ = fmt.Fprintln(out, cli.FormatWarning("Question was truncated"))
		}
		_, _ = fmt.Fprintln(out, cli.RenderBox("Prompt", plan.Prompt))
		return nil
	}

	_, _ = fmt.Fprintln(out, cli.Answer(c.Answer(ctx, question, receipts)))
	return nil
}

// newCoach builds a coach from configuration. budget overrides coach.budget
// when positive. The caller must Close the returned client.
func newCoach(logger *slog.Logger, budget float64) (*coach.Coach, *llmClient, error) {
	client, err := createLLMClient(logger)
	if err != nil {
		return nil, nil, err
	}

	coachCfg, err := config.LoadCoach()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if budget > 0 {
		coachCfg.Budget = budget
	}

	table, err := loadNutritionTable(config.LoadNutrition(), logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	c, err := coach.New(client.Client(), table, coach.Config{
		APIKey:        client.cfg.APIKey,
		Model:         client.model,
		MaxTokens:     client.cfg.MaxTokens,
		MonthlyBudget: coachCfg.Budget,
		WordBoundary:  coachCfg.WordBoundary,
		Timeout:       client.cfg.Timeout,
	}, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return c, client, nil
}
