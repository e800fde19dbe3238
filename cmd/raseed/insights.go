package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/config"
	"github.com/Veraticus/raseed/internal/insights"
	"github.com/Veraticus/raseed/internal/nutrition"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show spending insights and purchase history",
		Long: `Derive insights from stored receipts: your top spending category, this
week's spending and your most bought items. With --dietary the model also
reviews the nutrition of your groceries.`,
		RunE: runInsights,
	}

	cmd.Flags().Bool("dietary", false, "Ask the model for dietary recommendations")
	cmd.Flags().Bool("no-save", false, "Do not record the generated insights")

	cmd.AddCommand(insightsLogCmd())

	return cmd
}

func runInsights(cmd *cobra.Command, _ []string) error {
	dietary, _ := cmd.Flags().GetBool("dietary")
	noSave, _ := cmd.Flags().GetBool("no-save")
	ctx := cmd.Context()
	logger := slog.Default()
	out := cmd.OutOrStdout()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	receipts, err := loadAllReceipts(ctx, store)
	if err != nil {
		return err
	}

	spending := insights.Spending(receipts, time.Now())
	history := insights.History(receipts)

	_, _ = fmt.Fprintln(out, cli.FormatTitle("Spending insights"))
	_, _ = fmt.Fprintln(out, cli.InsightList(spending))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, cli.HistoryView(history))

	if !noSave && len(spending) > 0 {
		if err := store.SaveInsights(ctx, spending); err != nil {
			return fmt.Errorf("failed to save insights: %w", err)
		}
	}

	if !dietary {
		return nil
	}

	client, err := createLLMClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.require(); err != nil {
		return err
	}

	nutritionCfg := config.LoadNutrition()
	table, err := loadNutritionTable(nutritionCfg, logger)
	if err != nil {
		return err
	}
	resolver, err := newResolver(nutritionCfg, table, logger)
	if err != nil {
		return err
	}

	summary := nutrition.Summarize(ctx, receipts, resolver)
	advisor := insights.NewAdvisor(client.Client(), client.model, logger)
	recs, err := advisor.Generate(ctx, summary, history)
	if err != nil {
		logger.Warn("dietary insights failed", "error", err)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, cli.Recommendations(recs))
	return nil
}

func insightsLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show previously recorded insights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			saved, err := store.ListInsights(cmd.Context(), limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.InsightList(saved))
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum insights to show (0 for all)")

	return cmd
}
