package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/raseed/internal/coach"
	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/config"
	"github.com/Veraticus/raseed/internal/llm"
)

// llmClient is the configured provider wrapped with rate limiting, a
// circuit breaker and an optional response cache.
type llmClient struct {
	client  llm.Client // nil when no API key is configured
	cfg     config.LLM
	model   string
	closers []func()
}

// Client returns the wrapped client, or nil when no credential is configured.
func (c *llmClient) Client() llm.Client {
	return c.client
}

// require returns a user-facing error when no credential is configured.
func (c *llmClient) require() error {
	if c.client != nil {
		return nil
	}
	return common.NewUserError(
		fmt.Sprintf("%s Set llm.%s_api_key or %s.", coach.NotConfiguredMessage, c.cfg.Provider, config.KeyEnv(c.cfg.Provider)),
		common.ErrMissingCredential)
}

// Close stops background goroutines of the wrappers.
func (c *llmClient) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
}

// createLLMClient builds the model client from configuration. A missing API
// key is not an error: the returned llmClient has no client and commands
// report that the AI key is not configured.
func createLLMClient(logger *slog.Logger) (*llmClient, error) {
	cfg, err := config.LoadLLM()
	if err != nil {
		return nil, err
	}

	c := &llmClient{cfg: cfg, model: cfg.Model}
	if c.model == "" {
		c.model = llm.DefaultModel(cfg.Provider)
	}

	if cfg.APIKey == "" {
		logger.Debug("LLM API key not configured",
			"provider", cfg.Provider,
			"env", config.KeyEnv(cfg.Provider))
		return c, nil
	}

	base, err := llm.NewClient(llm.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       c.model,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var client llm.Client = base
	if cfg.RateLimit > 0 {
		limited := llm.WithRateLimit(client, cfg.RateLimit)
		c.closers = append(c.closers, limited.Close)
		client = limited
	}

	breakerCfg := llm.DefaultBreakerConfig(cfg.Provider)
	if cfg.Timeout > 0 {
		breakerCfg.CallTimeout = cfg.Timeout
	}
	client = llm.WithBreaker(client, breakerCfg, logger)

	if cfg.CacheTTL > 0 {
		cached := llm.WithCache(client, cfg.CacheTTL)
		c.closers = append(c.closers, cached.Close)
		client = cached
	}

	c.client = client
	return c, nil
}
