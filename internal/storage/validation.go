// Package storage provides the data persistence layer for raseed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/raseed/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidReceipt   = errors.New("invalid receipt")
	ErrInvalidInsight   = errors.New("invalid insight")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateReceipts validates a slice of receipts.
func validateReceipts(receipts []model.Receipt) error {
	if receipts == nil {
		return fmt.Errorf("%w: receipts", ErrNilParameter)
	}
	if len(receipts) == 0 {
		return fmt.Errorf("%w: receipts", ErrEmptySlice)
	}

	for i := range receipts {
		if err := validateReceipt(&receipts[i]); err != nil {
			return fmt.Errorf("receipt at index %d: %w", i, err)
		}
	}
	return nil
}

// validateReceipt validates a single receipt.
func validateReceipt(r *model.Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: receipt", ErrNilParameter)
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReceipt)
	}
	if strings.TrimSpace(r.MerchantName) == "" {
		return fmt.Errorf("%w: missing merchant name", ErrInvalidReceipt)
	}
	if r.TotalAmount < 0 {
		return fmt.Errorf("%w: negative total %.2f", ErrInvalidReceipt, r.TotalAmount)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidReceipt)
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidReceipt, i)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %q has negative price", ErrInvalidReceipt, item.Name)
		}
	}
	return nil
}

// validateInsight validates a spending insight.
func validateInsight(in *model.SpendingInsight) error {
	if in == nil {
		return fmt.Errorf("%w: insight", ErrNilParameter)
	}
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidInsight)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidInsight)
	}
	switch in.Type {
	case model.InsightWarning, model.InsightTip, model.InsightAchievement:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInsight, in.Type)
	}
	return nil
}
