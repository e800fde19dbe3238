package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/receipt"
)

const defaultScanConcurrency = 3

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>...",
		Short: "Extract receipts from photos",
		Long: `Send receipt photos to the model, extract merchant, date, total and line
items, and store the results. Images already stored are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().Int("concurrency", defaultScanConcurrency, "Number of images analyzed at once")
	cmd.Flags().Bool("dry-run", false, "Analyze without saving")

	return cmd
}

// scanResult is the outcome for one image.
type scanResult struct {
	err     error
	receipt *model.Receipt
	path    string
}

func runScan(cmd *cobra.Command, paths []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
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

	interrupts := cli.NewInterruptHandler(out, "Scan")
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Receipts analyzed so far will still be saved.")

	analyzer := receipt.NewAnalyzer(client.Client(), client.model, logger)
	results := scanImages(ctx, analyzer, paths, concurrency, cli.NewProgressBar(cmd.ErrOrStderr(), len(paths), "Scanning receipts..."))

	var (
		scanned []model.Receipt
		failed  int
	)
	for _, res := range results {
		if res.err != nil {
			failed++
			_, _ = fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", filepath.Base(res.path), res.err)))
			continue
		}
		scanned = append(scanned, *res.receipt)
	}

	if len(scanned) == 0 {
		return fmt.Errorf("no receipts extracted from %d images", len(paths))
	}

	_, _ = fmt.Fprintln(out, cli.ReceiptTable(scanned))
	if dryRun {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("Dry run: nothing saved"))
		return nil
	}

	// Save even after an interrupt, on a context that is still live.
	inserted, err := store.SaveReceipts(context.WithoutCancel(ctx), scanned)
	if err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %d new receipts (%d duplicates, %d failed)",
		inserted, len(scanned)-inserted, failed)))
	return nil
}

type progress interface {
	Add(int) error
}

// scanImages analyzes paths with at most concurrency calls in flight.
// Results keep the order of paths; per-image failures do not stop the batch.
func scanImages(ctx context.Context, analyzer *receipt.Analyzer, paths []string, concurrency int, bar progress) []scanResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]scanResult, len(paths))
	var barMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = scanImage(gctx, analyzer, path)
			if bar != nil {
				barMu.Lock()
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
				barMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func scanImage(ctx context.Context, analyzer *receipt.Analyzer, path string) scanResult {
	res := scanResult{path: path}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	info, err := os.Stat(path)
	if err != nil {
		res.err = err
		return res
	}
	if info.Size() > receipt.MaxImageBytes {
		res.err = receipt.ErrImageTooLarge
		return res
	}

	// #nosec G304 - path is a user-supplied image argument
	data, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		return res
	}

	res.receipt, res.err = analyzer.AnalyzeImage(ctx, data, "")
	return res
}
