package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/raseed/internal/model"
)

// BrowseConfig controls where the browser reads keys and draws.
type BrowseConfig struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Browse runs the receipt browser until the user quits or ctx is cancelled.
func Browse(ctx context.Context, receipts []model.Receipt, cfg BrowseConfig) error {
	if len(receipts) == 0 {
		return errors.New("no receipts to browse")
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	program := tea.NewProgram(NewBrowser(receipts), opts...)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("receipt browser failed: %w", err)
	}
	return nil
}
