package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the coach questions interactively",
		Long: `Start an interactive session. Each question is answered on its own,
using the receipts stored when the session started. Type "exit" or press
Ctrl-D to leave.`,
		RunE: runChat,
	}

	cmd.Flags().Int("limit", defaultCoachWindow, "Number of most recent receipts given to the coach (0 for all)")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
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

	c, client, err := newCoach(logger, 0)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	_, _ = fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("raseed coach (%d receipts loaded)", len(receipts))))

	for {
		question, err := prompter.Ask(ctx, "You")
		if err != nil {
			if errors.Is(err, cli.ErrInputTerminated) || errors.Is(err, cli.ErrInputCancelled) {
				_, _ = fmt.Fprintln(out)
				return nil
			}
			return err
		}

		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		_, _ = fmt.Fprintln(out, cli.Answer(c.Answer(ctx, question, receipts)))
	}
}
