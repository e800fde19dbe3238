package llm

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Client is the narrow capability every provider implements: one
// single-turn request in, response text out.
type Client interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Send calls f.
func (f ClientFunc) Send(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Image is an inline image attached to a request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is a single-turn model call.
type Request struct {
	System      string
	Prompt      string
	Model       string // Overrides the client's default model when set
	Images      []Image
	MaxTokens   int     // Overrides the client's default token budget when > 0
	Temperature float64 // Overrides the client's default temperature when > 0
}

// Response contains the model output.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Config holds provider configuration.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // Overrides the provider endpoint, used by tests and proxies
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// settings resolves per-request overrides against client defaults.
type settings struct {
	model       string
	temperature float64
	maxTokens   int
}

func (s settings) apply(req Request) settings {
	if req.Model != "" {
		s.model = req.Model
	}
	if req.Temperature > 0 {
		s.temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		s.maxTokens = req.MaxTokens
	}
	return s
}

func newSettings(cfg Config, defaultModel string) settings {
	s := settings{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.temperature == 0 {
		s.temperature = 0.3
	}
	if s.maxTokens == 0 {
		s.maxTokens = 1024
	}
	return s
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
