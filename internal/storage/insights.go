package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/raseed/internal/model"
)

// SaveInsights stores generated spending insights. Insights whose ID is
// already present are replaced.
func (s *SQLiteStorage) SaveInsights(ctx context.Context, insights []model.SpendingInsight) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(insights) == 0 {
		return nil
	}
	for i := range insights {
		if err := validateInsight(&insights[i]); err != nil {
			return fmt.Errorf("insight at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO spending_insights (
			id, title, description, category, amount, suggestion, type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, in := range insights {
		createdAt := in.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			in.ID,
			in.Title,
			in.Description,
			in.Category,
			in.Amount,
			in.Suggestion,
			string(in.Type),
			createdAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert insight %s: %w", in.ID, err)
		}
	}

	return tx.Commit()
}

// ListInsights returns the most recent insights first. A limit of zero or
// less returns all of them.
func (s *SQLiteStorage) ListInsights(ctx context.Context, limit int) ([]model.SpendingInsight, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, description, category, amount, suggestion, type, created_at
		FROM spending_insights
		ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []model.SpendingInsight
	for rows.Next() {
		var (
			in         model.SpendingInsight
			category   sql.NullString
			suggestion sql.NullString
			kind       string
		)
		if err := rows.Scan(
			&in.ID,
			&in.Title,
			&in.Description,
			&category,
			&in.Amount,
			&suggestion,
			&kind,
			&in.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		in.Category = category.String
		in.Suggestion = suggestion.String
		in.Type = model.InsightType(kind)
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating insights: %w", err)
	}
	return insights, nil
}
