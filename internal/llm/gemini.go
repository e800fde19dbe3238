package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// geminiClient implements the Client interface using Google's genai SDK.
type geminiClient struct {
	client   *genai.Client
	defaults settings
}

// newGeminiClient creates a new Gemini client.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiClient{
		client:   client,
		defaults: newSettings(cfg, DefaultGeminiModel),
	}, nil
}

// Send generates content for a single user turn.
func (c *geminiClient) Send(ctx context.Context, req Request) (Response, error) {
	s := c.defaults.apply(req)

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(s.temperature)),
		MaxOutputTokens: int32(s.maxTokens),
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, s.model, contents, genCfg)
	if err != nil {
		return Response{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyResponse
	}

	resp := Response{
		Text:  text,
		Model: result.ModelVersion,
	}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if resp.Model == "" {
		resp.Model = s.model
	}
	return resp, nil
}
