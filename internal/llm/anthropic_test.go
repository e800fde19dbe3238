package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
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
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newAnthropicClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestAnthropicClient_Send(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Eat more "}, {"type": "text", "text": "fiber."}],
			"usage": {"input_tokens": 20, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL + "/", MaxTokens: 300})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), Request{
		System: "coach",
		Prompt: "what should I eat?",
		Images: []Image{{MIMEType: "image/jpeg", Data: []byte("jpg")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Eat more fiber.", resp.Text)
	assert.Equal(t, 20, resp.InputTokens)
	assert.Equal(t, 3, resp.OutputTokens)

	assert.Equal(t, "coach", captured["system"])
	assert.InDelta(t, 300, captured["max_tokens"], 0)
	messages := captured["messages"].([]any)
	require.Len(t, messages, 1)
	blocks := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, blocks, 2)
	image := blocks[0].(map[string]any)
	assert.Equal(t, "image", image["type"])
	source := image["source"].(map[string]any)
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, "anBn", source["data"])
	assert.Equal(t, "what should I eat?", blocks[1].(map[string]any)["text"])
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
