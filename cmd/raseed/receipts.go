package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/storage"
	"github.com/Veraticus/raseed/internal/tui"
)

func receiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "receipts",
		Aliases: []string{"receipt"},
		Short:   "Manage stored receipts",
	}

	cmd.AddCommand(receiptsListCmd())
	cmd.AddCommand(receiptsShowCmd())
	cmd.AddCommand(receiptsBrowseCmd())
	cmd.AddCommand(receiptsDeleteCmd())
	cmd.AddCommand(receiptsImportCmd())
	cmd.AddCommand(receiptsExportCmd())

	return cmd
}

func receiptsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List receipts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := receiptFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			receipts, err := store.ListReceipts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.ReceiptTable(receipts))
			return nil
		},
	}

	addReceiptFilterFlags(cmd)
	cmd.Flags().Int("limit", 20, "Maximum receipts to show (0 for all)")
	cmd.Flags().Int("offset", 0, "Receipts to skip")

	return cmd
}

func addReceiptFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "Only receipts in this category")
	cmd.Flags().String("since", "", "Only receipts on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Only receipts on or before this date (YYYY-MM-DD)")
}

func receiptFilterFromFlags(cmd *cobra.Command) (storage.ReceiptFilter, error) {
	var filter storage.ReceiptFilter
	filter.Category, _ = cmd.Flags().GetString("category")
	if cmd.Flags().Lookup("limit") != nil {
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		filter.Offset, _ = cmd.Flags().GetInt("offset")
	}

	since, _ := cmd.Flags().GetString("since")
	until, _ := cmd.Flags().GetString("until")
	var err error
	if filter.Since, err = parseDay(since, false); err != nil {
		return filter, err
	}
	if filter.Until, err = parseDay(until, true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDay parses YYYY-MM-DD in local time; endOfDay moves to the last instant of the day.
func parseDay(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return day, nil
}

func receiptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a receipt with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			r, err := resolveReceipt(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.ReceiptDetail(*r))
			return nil
		},
	}
}

func receiptsBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and search receipts interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := receiptFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			receipts, err := store.ListReceipts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(receipts) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.ReceiptTable(nil))
				return nil
			}

			return tui.Browse(cmd.Context(), receipts, tui.BrowseConfig{
				Input:     cmd.InOrStdin(),
				Output:    cmd.OutOrStdout(),
				AltScreen: true,
			})
		},
	}

	addReceiptFilterFlags(cmd)

	return cmd
}

func receiptsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			r, err := resolveReceipt(ctx, store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				question := fmt.Sprintf("Delete %s receipt from %s ($%.2f)?",
					r.MerchantName, r.Date.Format("2006-01-02"), r.TotalAmount)
				ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, question, false)
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := store.DeleteReceipt(ctx, r.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Deleted receipt "+cli.ShortID(r.ID)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	return cmd
}

// resolveReceipt finds a receipt by full ID or by a unique ID prefix.
func resolveReceipt(ctx context.Context, store *storage.SQLiteStorage, id string) (*model.Receipt, error) {
	r, err := store.GetReceipt(ctx, id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	all, err := loadAllReceipts(ctx, store)
	if err != nil {
		return nil, err
	}
	var matches []model.Receipt
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, id) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return nil, common.NewUserError(fmt.Sprintf("no receipt with ID %q", id), common.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, common.NewUserError(fmt.Sprintf("ID prefix %q matches %d receipts", id, len(matches)), nil)
	}
}

func receiptsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import receipts from a JSON array",
		Long: `Import receipts entered by hand or exported from another install. The file
holds a JSON array of receipts with merchant_name, total_amount, date and
items. Missing IDs are generated; receipts already stored are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// #nosec G304 - path is a user-supplied import file
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			receipts, err := decodeReceipts(data, time.Now())
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			inserted, err := store.SaveReceipts(cmd.Context(), receipts)
			if err != nil {
				return fmt.Errorf("failed to save receipts: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Imported %d receipts (%d already stored)", inserted, len(receipts)-inserted)))
			return nil
		},
	}
}

// decodeReceipts parses an import file and fills the fields a hand-written
// receipt may leave out.
func decodeReceipts(data []byte, now time.Time) ([]model.Receipt, error) {
	var receipts []model.Receipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, common.NewUserError("import file must be a JSON array of receipts", err)
	}
	if len(receipts) == 0 {
		return nil, common.NewUserError("import file contains no receipts", nil)
	}

	for i := range receipts {
		r := &receipts[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Source == "" {
			r.Source = model.SourceManual
		}
		if r.Date.IsZero() {
			r.Date = now
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.Category = r.CategoryOrDefault()
		r.Hash = r.GenerateHash()
	}
	return receipts, nil
}

func receiptsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write receipts as a JSON array",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			filter, err := receiptFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			receipts, err := store.ListReceipts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if receipts == nil {
				receipts = []model.Receipt{}
			}

			data, err := json.MarshalIndent(receipts, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode receipts: %w", err)
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d receipts to %s", len(receipts), output)))
			return nil
		},
	}

	addReceiptFilterFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}
