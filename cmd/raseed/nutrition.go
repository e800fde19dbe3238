package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/config"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
)

func nutritionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nutrition",
		Short: "Nutrition of your groceries",
	}

	cmd.AddCommand(nutritionSummaryCmd())
	cmd.AddCommand(nutritionLookupCmd())
	cmd.AddCommand(nutritionImportCmd())

	return cmd
}

func nutritionSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Total nutrition, freshness and meal ideas for grocery receipts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := slog.Default()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			receipts, err := loadAllReceipts(ctx, store)
			if err != nil {
				return err
			}

			cfg := config.LoadNutrition()
			table, err := loadNutritionTable(cfg, logger)
			if err != nil {
				return err
			}
			resolver, err := newResolver(cfg, table, logger)
			if err != nil {
				return err
			}

			summary := nutrition.Summarize(ctx, receipts, resolver)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.NutritionView(
				summary,
				nutrition.ClassifyFreshness(receipts),
				nutrition.MealSuggestions(receipts)))
			return nil
		},
	}
}

func nutritionLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <item>",
		Short: "Look up nutrition facts for an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			logger := slog.Default()

			cfg := config.LoadNutrition()
			table, err := loadNutritionTable(cfg, logger)
			if err != nil {
				return err
			}
			resolver, err := newResolver(cfg, table, logger)
			if err != nil {
				return err
			}

			facts := resolver.Facts(cmd.Context(), name)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatFacts(facts))
			return nil
		},
	}
}

func formatFacts(f model.NutritionFacts) string {
	return cli.RenderBox(cli.LeafIcon+" "+f.Item, fmt.Sprintf(
		"Calories: %s\nProtein:  %sg\nCarbs:    %sg\nFat:      %sg\nFiber:    %sg",
		nutrition.FormatNumber(f.Calories),
		nutrition.FormatNumber(f.Protein),
		nutrition.FormatNumber(f.Carbs),
		nutrition.FormatNumber(f.Fat),
		nutrition.FormatNumber(f.Fiber)))
}

func nutritionImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add rows from a nutrition CSV to the local cache",
		Long: `Merge a CSV with item, protein, fiber, carbs, fat and calories columns into
the nutrition cache. Items already cached are left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			// #nosec G304 - path is a user-supplied import file
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			incoming, err := nutrition.ReadCSV(f)
			if err != nil {
				return err
			}

			cfg := config.LoadNutrition()
			existing, err := loadNutritionTable(cfg, logger)
			if err != nil {
				return err
			}

			var added []model.NutritionFacts
			for _, row := range incoming.Rows() {
				if _, ok := existing.Lookup(row.Item); ok {
					continue
				}
				added = append(added, row)
			}

			if len(added) > 0 {
				if err := nutrition.AppendCSV(cfg.CachePath, added...); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Added %d items to %s (%d already cached)", len(added), cfg.CachePath, incoming.Len()-len(added))))
			return nil
		},
	}
}
