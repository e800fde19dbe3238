package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/model"
)

// ReceiptFilter narrows ListReceipts. Zero values mean no constraint.
type ReceiptFilter struct {
	Since    time.Time
	Until    time.Time
	Category string
	Source   model.ReceiptSource
	Limit    int
	Offset   int
}

// SaveReceipts inserts receipts, skipping any whose content hash is already
// stored. It returns the number of receipts actually inserted.
func (s *SQLiteStorage) SaveReceipts(ctx context.Context, receipts []model.Receipt) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateReceipts(receipts); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveReceiptsTx(ctx, tx, receipts)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit receipts: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveReceiptsTx(ctx context.Context, tx *sql.Tx, receipts []model.Receipt) (int, error) {
	receiptStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO receipts (
			id, hash, merchant_name, total_amount, category, date,
			source, analysis_text, insights, savings_suggestions, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = receiptStmt.Close() }()

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO receipt_items (receipt_id, position, name, price, quantity)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item statement: %w", err)
	}
	defer func() { _ = itemStmt.Close() }()

	inserted := 0
	for _, r := range receipts {
		if r.Hash == "" {
			r.Hash = r.GenerateHash()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		if r.Source == "" {
			r.Source = model.SourceManual
		}

		insightsJSON, err := marshalStrings(r.Insights)
		if err != nil {
			return 0, err
		}
		suggestionsJSON, err := marshalStrings(r.SavingsSuggestions)
		if err != nil {
			return 0, err
		}

		result, err := receiptStmt.ExecContext(ctx,
			r.ID,
			r.Hash,
			strings.TrimSpace(r.MerchantName),
			r.TotalAmount,
			r.CategoryOrDefault(),
			r.Date.UTC(),
			string(r.Source),
			r.AnalysisText,
			insightsJSON,
			suggestionsJSON,
			r.CreatedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert receipt %s: %w", r.ID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check insert result: %w", err)
		}
		if affected == 0 {
			continue
		}
		inserted++

		for pos, item := range r.Items {
			if _, err := itemStmt.ExecContext(ctx, r.ID, pos, item.Name, item.Price, item.Units()); err != nil {
				return 0, fmt.Errorf("failed to insert item for receipt %s: %w", r.ID, err)
			}
		}
	}

	return inserted, nil
}

// GetReceipt returns the receipt with id, or common.ErrNotFound.
func (s *SQLiteStorage) GetReceipt(ctx context.Context, id string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectReceipts+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	receipts, err := s.scanReceipts(ctx, s.db, rows)
	if err != nil {
		return nil, err
	}
	if len(receipts) == 0 {
		return nil, common.ErrNotFound
	}
	return &receipts[0], nil
}

// ListReceipts returns receipts matching filter, newest first.
func (s *SQLiteStorage) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !filter.Since.IsZero() && !filter.Until.IsZero() && filter.Until.Before(filter.Since) {
		return nil, ErrInvalidDateRange
	}

	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return s.scanReceipts(ctx, s.db, rows)
}

// RecentReceipts returns the limit most recently stored receipts, newest
// first. A limit of zero or less returns every receipt.
func (s *SQLiteStorage) RecentReceipts(ctx context.Context, limit int) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, selectReceipts+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent receipts: %w", err)
	}
	return s.scanReceipts(ctx, s.db, rows)
}

// CountReceipts returns the number of stored receipts.
func (s *SQLiteStorage) CountReceipts(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return count, nil
}

// DeleteReceipt removes a receipt and its items.
func (s *SQLiteStorage) DeleteReceipt(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM receipt_items WHERE receipt_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete receipt items: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return tx.Commit()
}

// Timestamps are stored in UTC so that the text comparisons in range filters hold.
const selectReceipts = `
	SELECT id, hash, merchant_name, total_amount, category, date,
	       source, analysis_text, insights, savings_suggestions, created_at
	FROM receipts`

func buildListQuery(filter ReceiptFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "LOWER(category) = LOWER(?)")
		args = append(args, filter.Category)
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(filter.Source))
	}
	if !filter.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.Until.UTC())
	}

	var b strings.Builder
	b.WriteString(selectReceipts)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY date DESC, created_at DESC, id")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		b.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, filter.Offset)
	}
	return b.String(), args
}

// scanReceipts reads receipt rows, then attaches their items.
func (s *SQLiteStorage) scanReceipts(ctx context.Context, q queryable, rows *sql.Rows) ([]model.Receipt, error) {
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		var (
			r           model.Receipt
			source      string
			analysis    sql.NullString
			insights    sql.NullString
			suggestions sql.NullString
		)
		if err := rows.Scan(
			&r.ID,
			&r.Hash,
			&r.MerchantName,
			&r.TotalAmount,
			&r.Category,
			&r.Date,
			&source,
			&analysis,
			&insights,
			&suggestions,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		r.Source = model.ReceiptSource(source)
		r.AnalysisText = analysis.String

		var err error
		if r.Insights, err = unmarshalStrings(insights); err != nil {
			return nil, fmt.Errorf("failed to parse insights of receipt %s: %w", r.ID, err)
		}
		if r.SavingsSuggestions, err = unmarshalStrings(suggestions); err != nil {
			return nil, fmt.Errorf("failed to parse suggestions of receipt %s: %w", r.ID, err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipts: %w", err)
	}
	// Release the single connection before querying items.
	_ = rows.Close()
	if len(receipts) == 0 {
		return receipts, nil
	}

	if err := s.attachItems(ctx, q, receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *SQLiteStorage) attachItems(ctx context.Context, q queryable, receipts []model.Receipt) error {
	index := make(map[string]int, len(receipts))
	placeholders := make([]string, 0, len(receipts))
	args := make([]any, 0, len(receipts))
	for i, r := range receipts {
		index[r.ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, r.ID)
	}

	// #nosec G202 - only placeholders are concatenated
	rows, err := q.QueryContext(ctx, `
		SELECT receipt_id, name, price, quantity
		FROM receipt_items
		WHERE receipt_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY receipt_id, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to load receipt items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			receiptID string
			item      model.LineItem
		)
		if err := rows.Scan(&receiptID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan receipt item: %w", err)
		}
		if i, ok := index[receiptID]; ok {
			receipts[i].Items = append(receipts[i].Items, item)
		}
	}
	return rows.Err()
}

func marshalStrings(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(value sql.NullString) ([]string, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(value.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
