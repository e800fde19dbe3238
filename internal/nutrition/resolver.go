package nutrition

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/model"
)

// Resolver answers nutrition lookups from the local table first and falls
// back to a remote searcher, caching successful remote answers.
type Resolver struct {
	table     *Table
	searcher  Searcher
	logger    *slog.Logger
	cachePath string
	mu        sync.Mutex
}

// NewResolver creates a resolver. table may be nil; searcher may be nil,
// in which case unknown items resolve to zero facts. When cachePath is set,
// remote answers are appended to it.
func NewResolver(table *Table, searcher Searcher, cachePath string, logger *slog.Logger) *Resolver {
	if table == nil {
		table = NewTable()
	}
	return &Resolver{
		table:     table,
		searcher:  searcher,
		cachePath: cachePath,
		logger:    common.ComponentLogger(logger, "nutrition"),
	}
}

// Table returns the resolver's backing table, including cached remote rows.
func (r *Resolver) Table() *Table {
	return r.table
}

// Facts returns nutrition facts for name. Every failure degrades to zero
// facts carrying the requested name.
func (r *Resolver) Facts(ctx context.Context, name string) model.NutritionFacts {
	r.mu.Lock()
	if facts, ok := r.table.Lookup(name); ok {
		r.mu.Unlock()
		facts.Item = name
		return facts
	}
	r.mu.Unlock()

	zero := model.NutritionFacts{Item: name}
	if r.searcher == nil {
		r.logger.Debug("no remote lookup configured, nutrition data will be zero", "item", name)
		return zero
	}

	facts, err := r.searcher.Search(ctx, name)
	if err != nil {
		r.logger.Error("failed to fetch nutrition data", "item", name, "error", err)
		return zero
	}
	facts.Item = name

	r.mu.Lock()
	defer r.mu.Unlock()
	r.table.Add(facts)
	if r.cachePath != "" {
		if err := AppendCSV(r.cachePath, facts); err != nil {
			r.logger.Warn("failed to update nutrition cache", "path", r.cachePath, "error", err)
		}
	}
	return facts
}
