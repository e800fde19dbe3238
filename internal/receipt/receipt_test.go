package receipt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/llm"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubClient struct {
	err   error
	text  string
	last  llm.Request
	calls int
}

func (s *stubClient) Send(_ context.Context, req llm.Request) (llm.Response, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text}, nil
}

func fixedAnalyzer(client llm.Client) *Analyzer {
	a := NewAnalyzer(client, "gemini-2.0-flash", nil)
	a.now = func() time.Time { return time.Date(2025, 4, 2, 9, 30, 0, 0, time.Local) }
	return a
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		wantErr  error
		name     string
		mimeType string
		wantMIME string
		data     []byte
	}{
		{name: "empty", data: nil, wantErr: ErrEmptyImage},
		{name: "too large", data: bytes.Repeat([]byte{0}, MaxImageBytes+1), wantErr: ErrImageTooLarge},
		{name: "sniffed png", data: pngHeader, wantMIME: "image/png"},
		{name: "given type with params", data: []byte("xx"), mimeType: "image/webp; q=1", wantMIME: "image/webp"},
		{name: "text rejected", data: []byte("hello world"), wantErr: ErrUnsupportedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImage(tt.data, tt.mimeType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, got)
		})
	}
}

func TestAnalyzeImage(t *testing.T) {
	t.Run("parses fenced analysis", func(t *testing.T) {
		client := &stubClient{text: "```json\n" + `{
			"merchant_name": " Fresh Market ",
			"total_amount": 23.4,
			"date": "2025-03-30",
			"items": [
				{"name": "Spinach", "price": 2.5, "quantity": 2},
				{"name": "Oats", "price": 4.1, "quantity": 0},
				{"name": "", "price": 1}
			],
			"category": "Grocery",
			"insights": ["Mostly fresh produce"],
			"savings_suggestions": ["Buy oats in bulk"]
		}` + "\n```"}
		a := fixedAnalyzer(client)

		r, err := a.AnalyzeImage(context.Background(), pngHeader, "")
		require.NoError(t, err)

		assert.Equal(t, "Fresh Market", r.MerchantName)
		assert.InDelta(t, 23.4, r.TotalAmount, 1e-9)
		assert.Equal(t, "2025-03-30", r.Date.Format("2006-01-02"))
		assert.Equal(t, "Grocery", r.Category)
		assert.Equal(t, model.SourceImage, r.Source)
		assert.Equal(t, []model.LineItem{
			{Name: "Spinach", Price: 2.5, Quantity: 2},
			{Name: "Oats", Price: 4.1, Quantity: 1},
		}, r.Items)
		assert.Equal(t, []string{"Mostly fresh produce"}, r.Insights)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, r.GenerateHash(), r.Hash)

		require.Len(t, client.last.Images, 1)
		assert.Equal(t, "image/png", client.last.Images[0].MIMEType)
		assert.Contains(t, client.last.System, `"merchant_name"`)
	})

	t.Run("unparsable output falls back", func(t *testing.T) {
		a := fixedAnalyzer(&stubClient{text: "I could not read this receipt, sorry."})

		r, err := a.AnalyzeImage(context.Background(), pngHeader, "image/png")
		require.NoError(t, err)
		assert.Equal(t, UnknownMerchant, r.MerchantName)
		assert.Zero(t, r.TotalAmount)
		assert.Equal(t, "2025-04-02", r.Date.Format("2006-01-02"))
		assert.Equal(t, model.DefaultCategory, r.Category)
		assert.Empty(t, r.Items)
		assert.Equal(t, []string{"Receipt analyzed but details could not be extracted clearly"}, r.Insights)
		assert.Equal(t, []string{"Consider keeping digital receipts for better tracking"}, r.SavingsSuggestions)
	})

	t.Run("negative totals and bad dates are normalized", func(t *testing.T) {
		a := fixedAnalyzer(&stubClient{text: `{"merchant_name": "X", "total_amount": -5, "date": "yesterday"}`})

		r, err := a.AnalyzeImage(context.Background(), pngHeader, "")
		require.NoError(t, err)
		assert.Zero(t, r.TotalAmount)
		assert.Equal(t, "2025-04-02", r.Date.Format("2006-01-02"))
		assert.Equal(t, model.DefaultCategory, r.Category)
	})

	t.Run("discount lines are dropped", func(t *testing.T) {
		a := fixedAnalyzer(&stubClient{text: `{"merchant_name": "Corner Shop", "total_amount": 8.5, "items": [
			{"name": "Milk", "price": 4.5, "quantity": 1},
			{"name": "Bread", "price": 5, "quantity": 1},
			{"name": "Coupon", "price": -1}
		]}`})

		r, err := a.AnalyzeImage(context.Background(), pngHeader, "")
		require.NoError(t, err)
		assert.InDelta(t, 8.5, r.TotalAmount, 1e-9)
		assert.Equal(t, []model.LineItem{
			{Name: "Milk", Price: 4.5, Quantity: 1},
			{Name: "Bread", Price: 5, Quantity: 1},
		}, r.Items)
	})

	t.Run("model failure is an error", func(t *testing.T) {
		a := fixedAnalyzer(&stubClient{err: errors.New("quota")})
		_, err := a.AnalyzeImage(context.Background(), pngHeader, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("invalid image never reaches model", func(t *testing.T) {
		client := &stubClient{}
		_, err := fixedAnalyzer(client).AnalyzeImage(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrEmptyImage)
		assert.Zero(t, client.calls)
	})

	t.Run("missing client", func(t *testing.T) {
		_, err := fixedAnalyzer(nil).AnalyzeImage(context.Background(), pngHeader, "")
		assert.ErrorIs(t, err, common.ErrMissingCredential)
	})
}

func TestAnalyzeEmail(t *testing.T) {
	received := time.Date(2025, 4, 1, 18, 0, 0, 0, time.Local)
	email := Email{
		ID:         "email-1",
		Sender:     "receipts@uber.com",
		Subject:    "Trip Receipt",
		Content:    "Total: $17.00",
		Category:   "Transport",
		ReceivedAt: received,
	}

	t.Run("parsed", func(t *testing.T) {
		client := &stubClient{text: `{"merchant_name": "Uber", "total_amount": 17, "items": [{"name": "Trip", "price": 17, "quantity": 1}]}`}
		r, err := fixedAnalyzer(client).AnalyzeEmail(context.Background(), email)
		require.NoError(t, err)

		assert.Equal(t, "Uber", r.MerchantName)
		assert.Equal(t, "Transport", r.Category)
		assert.Equal(t, received, r.Date)
		assert.Equal(t, model.SourceEmail, r.Source)
		assert.Contains(t, client.last.Prompt, "Subject: Trip Receipt\nSender: receipts@uber.com\nContent: Total: $17.00")
		assert.Empty(t, client.last.Images)
	})

	t.Run("fallback uses sender", func(t *testing.T) {
		r, err := fixedAnalyzer(&stubClient{text: "nope"}).AnalyzeEmail(context.Background(), email)
		require.NoError(t, err)
		assert.Equal(t, "Uber", r.MerchantName)
		assert.Equal(t, model.DefaultCategory, r.Category)
		assert.Equal(t, []string{"Email receipt processed but details extraction failed"}, r.Insights)
		assert.Equal(t, []string{"Keep digital receipts for better tracking"}, r.SavingsSuggestions)
	})

	t.Run("empty content", func(t *testing.T) {
		client := &stubClient{}
		_, err := fixedAnalyzer(client).AnalyzeEmail(context.Background(), Email{ID: "e"})
		require.Error(t, err)
		assert.Zero(t, client.calls)
	})
}

func TestMerchantFromSender(t *testing.T) {
	tests := []struct {
		sender string
		want   string
	}{
		{sender: "receipt@starbucks.com", want: "Starbucks"},
		{sender: "receipts@uber.com", want: "Uber"},
		{sender: "orders@amazon.com", want: "Amazon"},
		{sender: "noreply@netflix.com", want: "Netflix"},
		{sender: "no-reply-whole_foods@wfm.com", want: "Whole Foods"},
		{sender: "corner-bakery@example.com", want: "Corner Bakery"},
		{sender: "Trader Joe's <orders@traderjoes.com>", want: "Trader Joe's"},
		{sender: "Local Shop", want: "Local Shop"},
		{sender: "  ", want: UnknownMerchant},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, MerchantFromSender(tt.sender))
		})
	}
}

func TestDemoMailbox(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

	a := NewDemoMailbox(7)
	b := NewDemoMailbox(7)
	for i := 0; i < 25; i++ {
		e := a.Next(now)
		other := b.Next(now)

		assert.Equal(t, e.Sender, other.Sender)
		assert.True(t, strings.HasPrefix(e.ID, "email-"))
		assert.NotContains(t, e.Content, "{date}")
		assert.NotContains(t, e.Content, "{next_month}")
		assert.True(t, e.ReceivedAt.Before(now))
		assert.False(t, e.ReceivedAt.Before(now.Add(-24*time.Hour)))
		assert.Contains(t, e.Content, e.ReceivedAt.Format("2006-01-02 15:04:05"))
		assert.NotEmpty(t, e.Category)
	}
}

func TestParseMessage(t *testing.T) {
	raw := "From: Starbucks <receipts@starbucks.com>\r\n" +
		"Subject: Your Starbucks Receipt\r\n" +
		"Date: Tue, 01 Apr 2025 08:15:00 +0000\r\n" +
		"Message-ID: <abc123@starbucks.com>\r\n" +
		"\r\n" +
		"Grande Latte $5.45\r\nTotal: $5.45\r\n"

	email, err := ParseMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "abc123@starbucks.com", email.ID)
	assert.Equal(t, "Starbucks <receipts@starbucks.com>", email.Sender)
	assert.Equal(t, "Your Starbucks Receipt", email.Subject)
	assert.Equal(t, "Grande Latte $5.45\r\nTotal: $5.45", email.Content)
	assert.True(t, email.ReceivedAt.Equal(time.Date(2025, 4, 1, 8, 15, 0, 0, time.UTC)))
	assert.Equal(t, "Starbucks", MerchantFromSender(email.Sender))

	t.Run("generated id and missing date", func(t *testing.T) {
		email, err := ParseMessage(strings.NewReader("From: a@b.com\r\n\r\nTotal $1\r\n"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(email.ID, "email-"))
		assert.True(t, email.ReceivedAt.IsZero())
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := ParseMessage(strings.NewReader("From: a@b.com\r\n\r\n  \r\n"))
		assert.ErrorIs(t, err, ErrEmptyEmail)
	})

	t.Run("not a message", func(t *testing.T) {
		_, err := ParseMessage(strings.NewReader(""))
		assert.Error(t, err)
	})
}
