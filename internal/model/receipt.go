// Package model holds the receipt, nutrition and insight records shared
// across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// DefaultCategory is used when a receipt carries no category label.
const DefaultCategory = "Other"

// ReceiptSource records how a receipt entered the system.
type ReceiptSource string

// Receipt sources.
const (
	SourceManual ReceiptSource = "manual"
	SourceImage  ReceiptSource = "image"
	SourceEmail  ReceiptSource = "email"
)

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Units returns the quantity, treating missing or invalid values as one unit.
func (i LineItem) Units() int {
	if i.Quantity < 1 {
		return 1
	}
	return i.Quantity
}

// Receipt is a purchase record extracted from an image, an email or entered by hand.
type Receipt struct {
	Date               time.Time     `json:"date"`
	CreatedAt          time.Time     `json:"created_at"`
	ID                 string        `json:"id"`
	MerchantName       string        `json:"merchant_name"`
	Category           string        `json:"category"`
	Source             ReceiptSource `json:"source"`
	AnalysisText       string        `json:"analysis_text,omitempty"`
	Hash               string        `json:"hash,omitempty"`
	Items              []LineItem    `json:"items"`
	Insights           []string      `json:"insights,omitempty"`
	SavingsSuggestions []string      `json:"savings_suggestions,omitempty"`
	TotalAmount        float64       `json:"total_amount"`
}

// CategoryOrDefault returns the receipt category, or DefaultCategory when blank.
func (r Receipt) CategoryOrDefault() string {
	if strings.TrimSpace(r.Category) == "" {
		return DefaultCategory
	}
	return r.Category
}

// GenerateHash creates a content hash for duplicate detection.
func (r *Receipt) GenerateHash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%.2f:%s",
		r.Date.Format("2006-01-02"),
		r.TotalAmount,
		strings.ToLower(strings.TrimSpace(r.MerchantName)))
	for _, item := range r.Items {
		fmt.Fprintf(&b, ":%s|%.2f|%d", strings.ToLower(item.Name), item.Price, item.Units())
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}
