package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/coach"
	"github.com/Veraticus/raseed/internal/config"
	"github.com/Veraticus/raseed/internal/insights"
)

const defaultDashboardWindow = 100

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show an overview of receipts, spending and nutrition",
		Long: `Combine manual, scanned and email receipts into one overview: receipt
counts, total spend by category, the latest receipts, spending insights and
nutrition for the latest receipt, the last 7 days and the last 30 days.

When an AI key is configured the model also reviews the last 30 days of
groceries, on their own and against your purchase history.`,
		RunE: runDashboard,
	}

	cmd.Flags().Int("limit", defaultDashboardWindow, "Most recent receipts to include (0 for all)")
	cmd.Flags().Bool("no-ai", false, "Skip dietary insights")

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	ctx := cmd.Context()
	logger := slog.Default()
	out := cmd.OutOrStdout()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	receipts, err := loadRecentReceipts(ctx, store, limit)
	if err != nil {
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

	dash := insights.BuildDashboard(ctx, receipts, resolver, time.Now())
	_, _ = fmt.Fprintln(out, cli.DashboardView(dash))

	if noAI {
		return nil
	}

	client, err := createLLMClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	_, _ = fmt.Fprintln(out)
	if client.Client() == nil && !dash.Monthly().IsEmpty() {
		_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render("Dietary insights: "+coach.NotConfiguredMessage))
		return nil
	}

	advisor := insights.NewAdvisor(client.Client(), client.model, logger)
	combined, err := advisor.Combined(ctx, dash.Monthly(), dash.History)
	if err != nil {
		logger.Warn("dietary insights failed", "error", err)
	}
	_, _ = fmt.Fprintln(out, cli.DietaryView(combined))
	return nil
}
