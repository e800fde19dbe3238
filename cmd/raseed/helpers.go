package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/raseed/internal/config"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/nutrition"
	"github.com/Veraticus/raseed/internal/storage"
)

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadAllReceipts returns every stored receipt, newest first.
func loadAllReceipts(ctx context.Context, store *storage.SQLiteStorage) ([]model.Receipt, error) {
	receipts, err := store.ListReceipts(ctx, storage.ReceiptFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	return receipts, nil
}

// defaultCoachWindow is how many recent receipts the coach sees per question.
const defaultCoachWindow = 10

// loadRecentReceipts returns the limit most recently stored receipts, or all
// of them when limit is zero.
func loadRecentReceipts(ctx context.Context, store *storage.SQLiteStorage, limit int) ([]model.Receipt, error) {
	receipts, err := store.RecentReceipts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	return receipts, nil
}

// loadNutritionTable reads the nutrition cache. A missing file yields a nil
// table, which callers treat as "no reference data".
func loadNutritionTable(cfg config.Nutrition, logger *slog.Logger) (*nutrition.Table, error) {
	table, err := nutrition.LoadCSV(cfg.CachePath)
	if err != nil {
		if errors.Is(err, nutrition.ErrUnavailable) {
			logger.Debug("nutrition cache not found", "path", cfg.CachePath)
			return nil, nil
		}
		return nil, err
	}
	return table, nil
}

// newResolver builds a nutrition resolver over the cache, with USDA lookups
// when a key is configured.
func newResolver(cfg config.Nutrition, table *nutrition.Table, logger *slog.Logger) (*nutrition.Resolver, error) {
	var searcher nutrition.Searcher
	if cfg.USDAAPIKey != "" {
		usda, err := nutrition.NewUSDAClient(nutrition.USDAConfig{APIKey: cfg.USDAAPIKey}, logger)
		if err != nil {
			return nil, err
		}
		searcher = usda
	} else {
		logger.Warn("USDA API key not configured, unknown items will have zero nutrition",
			"hint", "set nutrition.usda_api_key or USDA_API_KEY")
	}
	return nutrition.NewResolver(table, searcher, cfg.CachePath, logger), nil
}
