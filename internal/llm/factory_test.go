package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantType any
		errMsg   string
	}{
		{name: "default provider is gemini", config: Config{APIKey: "k"}, wantType: &geminiClient{}},
		{name: "gemini", config: Config{Provider: "Gemini", APIKey: "k"}, wantType: &geminiClient{}},
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}, wantType: &openAIClient{}},
		{name: "anthropic", config: Config{Provider: "anthropic", APIKey: "k"}, wantType: &anthropicClient{}},
		{name: "missing key", config: Config{Provider: "gemini"}, errMsg: "API key is required"},
		{name: "unknown provider", config: Config{Provider: "llama", APIKey: "k"}, errMsg: "unsupported LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, client)
		})
	}
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, DefaultGeminiModel, DefaultModel(""))
	assert.Equal(t, DefaultGeminiModel, DefaultModel("gemini"))
	assert.Equal(t, DefaultOpenAIModel, DefaultModel("OpenAI"))
	assert.Equal(t, DefaultAnthropicModel, DefaultModel("anthropic"))
}

func TestGeminiClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Buy lentils."}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 2},
			"modelVersion": "gemini-2.0-flash"
		}`))
	}))
	defer server.Close()

	client, err := newGeminiClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), Request{System: "coach", Prompt: "cheap protein?"})
	require.NoError(t, err)
	assert.Equal(t, "Buy lentils.", resp.Text)
	assert.Equal(t, 7, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
}

func TestSettingsApply(t *testing.T) {
	defaults := newSettings(Config{}, "base-model")
	assert.Equal(t, "base-model", defaults.model)
	assert.InDelta(t, 0.3, defaults.temperature, 1e-9)
	assert.Equal(t, 1024, defaults.maxTokens)

	s := defaults.apply(Request{Model: "other", MaxTokens: 50})
	assert.Equal(t, "other", s.model)
	assert.Equal(t, 50, s.maxTokens)
	assert.InDelta(t, 0.3, s.temperature, 1e-9)
}
