package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				APIKey: "test-key",
			},
			wantErr: false,
		},
		{
			name: "missing API key",
			config: Config{
				APIKey: "",
			},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4",
				Temperature: 0.5,
				MaxTokens:   200,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestOpenAIClient_Send(t *testing.T) {
	tests := []struct {
		request      Request
		checkRequest func(t *testing.T, body map[string]any)
		name         string
		responseBody string
		wantText     string
		wantErr      error
		statusCode   int
	}{
		{
			name:       "text with system message",
			request:    Request{System: "be brief", Prompt: "how much did I spend?"},
			statusCode: http.StatusOK,
			responseBody: `{
				"model": "gpt-4o-mini",
				"choices": [{"message": {"role": "assistant", "content": "You spent $42."}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 4}
			}`,
			wantText: "You spent $42.",
			checkRequest: func(t *testing.T, body map[string]any) {
				t.Helper()
				messages, ok := body["messages"].([]any)
				require.True(t, ok)
				require.Len(t, messages, 2)
				system := messages[0].(map[string]any)
				assert.Equal(t, "system", system["role"])
				assert.Equal(t, "be brief", system["content"])
				user := messages[1].(map[string]any)
				assert.Equal(t, "how much did I spend?", user["content"])
				assert.Equal(t, "gpt-4o-mini", body["model"])
			},
		},
		{
			name: "image becomes data url part",
			request: Request{
				Prompt: "read this receipt",
				Images: []Image{{MIMEType: "image/png", Data: []byte("png")}},
				Model:  "gpt-4o",
			},
			statusCode:   http.StatusOK,
			responseBody: `{"choices": [{"message": {"content": "{}"}}]}`,
			wantText:     "{}",
			checkRequest: func(t *testing.T, body map[string]any) {
				t.Helper()
				assert.Equal(t, "gpt-4o", body["model"])
				messages := body["messages"].([]any)
				require.Len(t, messages, 1)
				parts := messages[0].(map[string]any)["content"].([]any)
				require.Len(t, parts, 2)
				image := parts[1].(map[string]any)
				assert.Equal(t, "image_url", image["type"])
				url := image["image_url"].(map[string]any)["url"]
				assert.Equal(t, "data:image/png;base64,cG5n", url)
			},
		},
		{
			name:         "empty choices",
			request:      Request{Prompt: "hi"},
			statusCode:   http.StatusOK,
			responseBody: `{"choices": []}`,
			wantErr:      ErrEmptyResponse,
		},
		{
			name:         "rate limited",
			request:      Request{Prompt: "hi"},
			statusCode:   http.StatusTooManyRequests,
			responseBody: `{"error": "slow down"}`,
			wantErr:      common.ErrRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				var body map[string]any
				require.NoError(t, json.Unmarshal(raw, &body))
				if tt.checkRequest != nil {
					tt.checkRequest(t, body)
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			resp, err := client.Send(context.Background(), tt.request)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, resp.Text)
		})
	}
}

func TestOpenAIClient_ServerErrorIsNotRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal"))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "OpenAI", apiErr.Provider)
	assert.NotErrorIs(t, err, common.ErrRateLimit)
}
