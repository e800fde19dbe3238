package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/receipt"
)

func emailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Extract receipts from emails",
	}

	cmd.AddCommand(emailSimulateCmd())
	cmd.AddCommand(emailImportCmd())

	return cmd
}

func emailSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Process demo receipt emails",
		Long: `Generate demo receipt emails (coffee, online orders, rides, retail and
subscriptions), analyze them like real mail and store the receipts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetUint64("seed")
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			mailbox := receipt.NewDemoMailbox(seed)
			now := time.Now()
			emails := make([]receipt.Email, count)
			for i := range emails {
				emails[i] = mailbox.Next(now)
			}
			return processEmails(cmd, emails)
		},
	}

	cmd.Flags().Int("count", 3, "Number of demo emails")
	cmd.Flags().Uint64("seed", 0, "Random seed for reproducible demo mail (default: time based)")
	cmd.Flags().Bool("dry-run", false, "Analyze without saving")

	return cmd
}

func emailImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.eml>...",
		Short: "Process saved email messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			category, _ := cmd.Flags().GetString("category")

			emails := make([]receipt.Email, 0, len(paths))
			for _, path := range paths {
				email, err := readEmailFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				email.Category = category
				emails = append(emails, email)
			}
			return processEmails(cmd, emails)
		},
	}

	cmd.Flags().String("category", "", "Category used when the model does not assign one")
	cmd.Flags().Bool("dry-run", false, "Analyze without saving")

	return cmd
}

func readEmailFile(path string) (receipt.Email, error) {
	// #nosec G304 - path is a user-supplied message file
	f, err := os.Open(path)
	if err != nil {
		return receipt.Email{}, err
	}
	defer func() { _ = f.Close() }()
	return receipt.ParseMessage(f)
}

func processEmails(cmd *cobra.Command, emails []receipt.Email) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logger := slog.Default()
	out := cmd.OutOrStdout()

	client, err := createLLMClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.require(); err != nil {
		return err
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	interrupts := cli.NewInterruptHandler(out, "Email processing")
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Emails processed so far will still be saved.")

	analyzer := receipt.NewAnalyzer(client.Client(), client.model, logger)
	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(emails), "Processing emails...")

	var receipts []model.Receipt
	for _, email := range emails {
		if ctx.Err() != nil {
			break
		}
		r, err := analyzer.AnalyzeEmail(ctx, email)
		if err != nil {
			_, _ = fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", email.Subject, err)))
		} else {
			receipts = append(receipts, *r)
		}
		if err := bar.Add(1); err != nil {
			logger.Warn("Failed to update progress bar", "error", err)
		}
	}

	if len(receipts) == 0 {
		return fmt.Errorf("no receipts extracted from %d emails", len(emails))
	}

	_, _ = fmt.Fprintln(out, cli.ReceiptTable(receipts))
	if dryRun {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("Dry run: nothing saved"))
		return nil
	}

	inserted, err := store.SaveReceipts(context.WithoutCancel(ctx), receipts)
	if err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %d new receipts from %d emails", inserted, len(emails))))
	return nil
}
