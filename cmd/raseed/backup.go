package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/raseed/internal/cli"
	"github.com/Veraticus/raseed/internal/config"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [destination]",
		Short: "Write a verified copy of the database",
		Long: `Copy the database to destination, or to a timestamped file next to the
database when no destination is given. The copy is checked with SQLite's
integrity check before the command succeeds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			dest := defaultBackupPath(store.Path(), time.Now())
			if len(args) == 1 {
				dest = config.ExpandPath(args[0])
			}
			if dest, err = filepath.Abs(dest); err != nil {
				return fmt.Errorf("invalid destination: %w", err)
			}

			if err := store.Backup(cmd.Context(), dest); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Backup written to "+dest))
			return nil
		},
	}

	return cmd
}

// defaultBackupPath places backups in a backups directory beside the database.
func defaultBackupPath(dbPath string, now time.Time) string {
	dir := filepath.Join(filepath.Dir(dbPath), "backups")
	return filepath.Join(dir, "raseed-"+now.Format("20060102-150405")+".db")
}
