package llm

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/raseed/internal/common"
)

// APIError is a non-200 answer from a provider.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps throttling responses onto common.ErrRateLimit.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return common.ErrRateLimit
	}
	return nil
}

func statusError(provider string, statusCode int, body []byte) error {
	const maxBody = 512
	text := string(body)
	if len(text) > maxBody {
		text = text[:maxBody] + "..."
	}
	return &APIError{Provider: provider, StatusCode: statusCode, Body: text}
}
