package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial receipt schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS receipts (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					merchant_name TEXT NOT NULL,
					total_amount REAL NOT NULL CHECK (total_amount >= 0),
					category TEXT NOT NULL DEFAULT 'Other',
					date DATETIME NOT NULL,
					source TEXT NOT NULL DEFAULT 'manual',
					analysis_text TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_receipts_date ON receipts(date)`,
				`CREATE INDEX IF NOT EXISTS idx_receipts_category ON receipts(category)`,

				`CREATE TABLE IF NOT EXISTS receipt_items (
					receipt_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					name TEXT NOT NULL,
					price REAL NOT NULL DEFAULT 0,
					quantity INTEGER NOT NULL DEFAULT 1,
					PRIMARY KEY (receipt_id, position),
					FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Store model insights and savings suggestions on receipts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE receipts ADD COLUMN insights TEXT`,
				`ALTER TABLE receipts ADD COLUMN savings_suggestions TEXT`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add spending insights history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS spending_insights (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT NOT NULL,
					category TEXT,
					amount REAL NOT NULL DEFAULT 0,
					suggestion TEXT,
					type TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_spending_insights_created ON spending_insights(created_at)`,
			})
		},
	},
}

// Migrate applies pending migrations in order.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
