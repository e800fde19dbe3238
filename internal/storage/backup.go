package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidBackupPath is returned for destinations that cannot be used in VACUUM INTO.
var ErrInvalidBackupPath = errors.New("invalid backup path")

// Backup writes a consistent copy of the database to destPath and verifies it.
// destPath must be absolute and must not already exist.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBackupPath(destPath); err != nil {
		return err
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("%w: %s already exists", ErrInvalidBackupPath, destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	if err := verifyBackup(ctx, destPath); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			slog.Error("failed to remove invalid backup", "path", destPath, "error", rmErr)
		}
		return err
	}
	return nil
}

func validateBackupPath(destPath string) error {
	if strings.ContainsAny(destPath, "'\";") {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidBackupPath)
	}
	if !filepath.IsAbs(destPath) || strings.Contains(destPath, "..") {
		return fmt.Errorf("%w: must be an absolute path", ErrInvalidBackupPath)
	}
	return nil
}

func verifyBackup(ctx context.Context, path string) error {
	backup, err := NewSQLiteStorage(path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if err := backup.Close(); err != nil {
			slog.Error("failed to close backup database", "error", err)
		}
	}()

	var result string
	if err := backup.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check backup integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup integrity check failed: %s", result)
	}

	version, err := backup.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != ExpectedSchemaVersion {
		return fmt.Errorf("backup schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, version)
	}
	return nil
}
