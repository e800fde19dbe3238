// Package receipt turns receipt images and receipt emails into structured
// receipts using a vision-capable language model.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/llm"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/google/uuid"
)

// MaxImageBytes bounds the size of an uploaded receipt image.
const MaxImageBytes = 10 << 20

// Image validation errors.
var (
	ErrEmptyImage       = errors.New("receipt image is empty")
	ErrImageTooLarge    = fmt.Errorf("receipt image exceeds %d bytes", MaxImageBytes)
	ErrUnsupportedImage = errors.New("unsupported receipt image type")
)

// Fallback texts used when the model answer cannot be parsed.
const (
	UnknownMerchant = "Unknown Merchant"

	imageFallbackInsight    = "Receipt analyzed but details could not be extracted clearly"
	imageFallbackSuggestion = "Consider keeping digital receipts for better tracking"
	emailFallbackInsight    = "Email receipt processed but details extraction failed"
	emailFallbackSuggestion = "Keep digital receipts for better tracking"
)

const imageSystemPrompt = `You are an expert receipt analyzer for Project Raseed.
Extract structured data from receipt images and provide financial insights.

Return your analysis in this exact JSON format:
{
    "merchant_name": "Name of store/restaurant",
    "total_amount": 0.0,
    "date": "YYYY-MM-DD",
    "items": [
        {"name": "Item name", "price": 0.0, "quantity": 1}
    ],
    "category": "Category",
    "insights": ["Insight 1", "Insight 2"],
    "savings_suggestions": ["Suggestion 1", "Suggestion 2"]
}`

const imagePrompt = "Analyze this receipt and extract all information. Return only the JSON response with no additional text."

const emailSystemPrompt = `You are an expert email receipt analyzer for Project Raseed.
Analyze email content to extract purchase information from email receipts.

Return your analysis in this exact JSON format:
{
    "merchant_name": "Name of store/company",
    "total_amount": 0.00,
    "items": [
        {"name": "Item name", "price": 0.00, "quantity": 1}
    ],
    "category": "Category (Food, Shopping, Transport, Entertainment, etc.)",
    "insights": [
        "Insight about spending pattern from email",
        "Analysis of purchase timing/frequency"
    ],
    "savings_suggestions": [
        "Specific savings suggestion based on email content"
    ]
}

Be intelligent about extracting data from various email formats (HTML, plain text, different merchants).`

// analysis is the JSON shape requested from the model.
type analysis struct {
	MerchantName       string           `json:"merchant_name"`
	Date               string           `json:"date"`
	Category           string           `json:"category"`
	Items              []model.LineItem `json:"items"`
	Insights           []string         `json:"insights"`
	SavingsSuggestions []string         `json:"savings_suggestions"`
	TotalAmount        float64          `json:"total_amount"`
}

// Analyzer extracts receipts with a language model.
type Analyzer struct {
	client llm.Client
	logger *slog.Logger
	now    func() time.Time
	model  string
}

// NewAnalyzer creates an analyzer. model may be empty to use the client default.
func NewAnalyzer(client llm.Client, model string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		model:  model,
		logger: common.ComponentLogger(logger, "receipt"),
		now:    time.Now,
	}
}

// ValidateImage checks size limits and resolves the MIME type, sniffing it
// when mimeType is empty.
func ValidateImage(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}
	return mimeType, nil
}

// AnalyzeImage extracts a receipt from an image. Unparsable model output
// yields a placeholder receipt; model failures are returned as errors.
func (a *Analyzer) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (*model.Receipt, error) {
	mimeType, err := ValidateImage(data, mimeType)
	if err != nil {
		return nil, err
	}
	if a.client == nil {
		return nil, fmt.Errorf("receipt analysis: %w", common.ErrMissingCredential)
	}

	resp, err := a.client.Send(ctx, llm.Request{
		System: imageSystemPrompt,
		Prompt: imagePrompt,
		Model:  a.model,
		Images: []llm.Image{{MIMEType: mimeType, Data: data}},
	})
	if err != nil {
		return nil, fmt.Errorf("receipt analysis failed: %w", err)
	}

	now := a.now()
	parsed, err := parseAnalysis(resp.Text)
	if err != nil {
		a.logger.Error("failed to parse receipt analysis", "error", err, "response", resp.Text)
		parsed = analysis{
			MerchantName:       UnknownMerchant,
			Date:               now.Format("2006-01-02"),
			Category:           model.DefaultCategory,
			Insights:           []string{imageFallbackInsight},
			SavingsSuggestions: []string{imageFallbackSuggestion},
		}
	}

	return a.build(parsed, resp.Text, model.SourceImage, now, now), nil
}

// AnalyzeEmail extracts a receipt from an email body. Unparsable output
// yields a placeholder receipt named after the sender.
func (a *Analyzer) AnalyzeEmail(ctx context.Context, email Email) (*model.Receipt, error) {
	if strings.TrimSpace(email.Content) == "" {
		return nil, fmt.Errorf("email %q has no content", email.ID)
	}
	if a.client == nil {
		return nil, fmt.Errorf("email analysis: %w", common.ErrMissingCredential)
	}

	prompt := fmt.Sprintf("Analyze this email receipt:\n\nSubject: %s\nSender: %s\nContent: %s\n\n"+
		"Extract all purchase information and return only the JSON response with no additional text.",
		email.Subject, email.Sender, email.Content)

	resp, err := a.client.Send(ctx, llm.Request{
		System: emailSystemPrompt,
		Prompt: prompt,
		Model:  a.model,
	})
	if err != nil {
		return nil, fmt.Errorf("email receipt analysis failed: %w", err)
	}

	parsed, err := parseAnalysis(resp.Text)
	if err != nil {
		a.logger.Error("failed to parse email analysis", "error", err, "email_id", email.ID)
		parsed = analysis{
			MerchantName:       MerchantFromSender(email.Sender),
			Category:           model.DefaultCategory,
			Insights:           []string{emailFallbackInsight},
			SavingsSuggestions: []string{emailFallbackSuggestion},
		}
	}
	if parsed.Category == "" {
		parsed.Category = email.Category
	}

	received := email.ReceivedAt
	if received.IsZero() {
		received = a.now()
	}
	// Email analyses carry no date; the receipt is dated when it arrived.
	parsed.Date = ""
	return a.build(parsed, resp.Text, model.SourceEmail, received, a.now()), nil
}

func parseAnalysis(text string) (analysis, error) {
	var out analysis
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &out); err != nil {
		return analysis{}, err
	}
	return out, nil
}

func (a *Analyzer) build(parsed analysis, raw string, source model.ReceiptSource, fallbackDate, createdAt time.Time) *model.Receipt {
	date := fallbackDate
	if parsed.Date != "" {
		if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parsed.Date), time.Local); err == nil {
			date = d
		} else {
			a.logger.Debug("unparsable receipt date", "date", parsed.Date)
		}
	}

	merchant := strings.TrimSpace(parsed.MerchantName)
	if merchant == "" {
		merchant = UnknownMerchant
	}
	category := strings.TrimSpace(parsed.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	total := parsed.TotalAmount
	if total < 0 {
		a.logger.Warn("negative receipt total, clamping to zero", "merchant", merchant, "total", total)
		total = 0
	}

	items := make([]model.LineItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		// Discount and coupon lines are already reflected in the total.
		if item.Price < 0 {
			a.logger.Warn("dropping negative-price item", "merchant", merchant, "item", item.Name, "price", item.Price)
			continue
		}
		item.Quantity = item.Units()
		items = append(items, item)
	}

	r := &model.Receipt{
		ID:                 uuid.NewString(),
		MerchantName:       merchant,
		TotalAmount:        total,
		Date:               date,
		Category:           category,
		Items:              items,
		Insights:           parsed.Insights,
		SavingsSuggestions: parsed.SavingsSuggestions,
		Source:             source,
		AnalysisText:       raw,
		CreatedAt:          createdAt,
	}
	r.Hash = r.GenerateHash()
	return r
}
