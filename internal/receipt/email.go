package receipt

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Email is a receipt delivered by mail.
type Email struct {
	ReceivedAt time.Time `json:"received_date"`
	ID         string    `json:"email_id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
}

// maxEmailBody bounds how much of a message body is sent to the model.
const maxEmailBody = 64 << 10

// ErrEmptyEmail is returned for messages without a body.
var ErrEmptyEmail = errors.New("email has no body")

// ParseMessage reads an RFC 5322 message, such as a saved .eml file. Bodies
// are passed through as text; multipart structure is not decoded.
func ParseMessage(r io.Reader) (Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return Email{}, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(msg.Body, maxEmailBody))
	if err != nil {
		return Email{}, fmt.Errorf("failed to read email body: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return Email{}, ErrEmptyEmail
	}

	email := Email{
		ID:      strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		Sender:  msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
		Content: content,
	}
	if email.ID == "" {
		email.ID = "email-" + uuid.NewString()
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}
	return email, nil
}

var senderPrefix = regexp.MustCompile(`(?i)^(no-?reply|receipts?|orders?)[-_.]?`)

// MerchantFromSender guesses a merchant name from an email sender. A
// display name wins; otherwise the local part is cleaned of automated
// prefixes, falling back to the first label of the domain.
func MerchantFromSender(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return UnknownMerchant
	}

	addr := sender
	if parsed, err := mail.ParseAddress(sender); err == nil {
		if parsed.Name != "" {
			return parsed.Name
		}
		addr = parsed.Address
	}

	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return sender
	}

	local := senderPrefix.ReplaceAllString(addr[:at], "")
	if name := titleCase(local); name != "" {
		return name
	}

	domain := addr[at+1:]
	if dot := strings.IndexByte(domain, '.'); dot >= 0 {
		domain = domain[:dot]
	}
	if name := titleCase(domain); name != "" {
		return name
	}
	return UnknownMerchant
}

// titleCase turns separators into spaces and capitalizes each word.
func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

type demoTemplate struct {
	sender   string
	subject  string
	content  string
	category string
}

var demoTemplates = []demoTemplate{
	{
		sender:  "receipt@starbucks.com",
		subject: "Your Starbucks Receipt",
		content: `Thank you for your purchase at Starbucks!

Order #: 12345
Date: {date}
Location: Downtown Store

Items:
- Grande Latte                 $5.25
- Blueberry Muffin             $3.45
- Extra Shot                   $0.75

Subtotal:                      $9.45
Tax:                           $0.85
Total:                         $10.30

Thank you for choosing Starbucks!`,
		category: "Food",
	},
	{
		sender:  "orders@amazon.com",
		subject: "Your Amazon Order Confirmation",
		content: `Your order has been shipped!

Order #: 123-4567890-1234567
Order Date: {date}

Items Ordered:
1. Wireless Bluetooth Headphones   $79.99
2. Phone Case - Clear              $12.99
3. USB Cable - 6ft                 $8.99

Subtotal:                          $101.97
Shipping:                          FREE
Tax:                               $8.16
Total:                             $110.13

Expected Delivery: Tomorrow`,
		category: "Shopping",
	},
	{
		sender:  "receipts@uber.com",
		subject: "Trip Receipt",
		content: `Thanks for riding with Uber!

Trip Details:
Date: {date}
From: Home
To: Downtown Office
Distance: 5.2 miles
Duration: 18 minutes

Fare Breakdown:
Base Fare:                         $2.50
Distance:                          $8.75
Time:                              $3.20
Booking Fee:                       $2.55

Total:                             $17.00
Payment: Visa ****1234`,
		category: "Transport",
	},
	{
		sender:  "receipt@target.com",
		subject: "Target Receipt - Store #1234",
		content: `Thank you for shopping at Target!

Store #1234
Date: {date}
REF# 1234-5678-9012

Items:
- Organic Bananas 2lb             $3.49
- Bread - Whole Wheat             $2.99
- Milk - 2% Gallon                $3.79
- Greek Yogurt 4-pack             $5.49
- Laundry Detergent               $11.99
- Paper Towels 6-pack             $8.99

Subtotal:                        $36.74
Tax:                             $2.94
Total:                           $39.68

You saved $5.50 today!`,
		category: "Grocery",
	},
	{
		sender:  "noreply@netflix.com",
		subject: "Netflix - Your monthly bill",
		content: `Your Netflix subscription has been renewed.

Plan: Premium (4 screens, Ultra HD)
Billing Date: {date}
Next Billing Date: {next_month}

Amount Charged: $19.99
Payment Method: Visa ending in 1234

Enjoy your Netflix subscription!`,
		category: "Entertainment",
	},
}

// DemoMailbox produces simulated receipt emails for demos and tests.
type DemoMailbox struct {
	rng *rand.Rand
}

// NewDemoMailbox creates a mailbox. The same seed yields the same sequence.
func NewDemoMailbox(seed uint64) *DemoMailbox {
	return &DemoMailbox{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns a random demo email received within the 24 hours before now.
func (m *DemoMailbox) Next(now time.Time) Email {
	tmpl := demoTemplates[m.rng.IntN(len(demoTemplates))]
	received := now.Add(-time.Duration(1+m.rng.IntN(1440)) * time.Minute)
	nextMonth := now.AddDate(0, 0, 30)

	content := strings.NewReplacer(
		"{date}", received.Format("2006-01-02 15:04:05"),
		"{next_month}", nextMonth.Format("2006-01-02"),
	).Replace(tmpl.content)

	return Email{
		ID:         "email-" + uuid.NewString(),
		Sender:     tmpl.sender,
		Subject:    tmpl.subject,
		Content:    content,
		ReceivedAt: received,
		Category:   tmpl.category,
	}
}
