package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/model"
)

const usdaBaseURL = "https://api.nal.usda.gov"

// ErrNoMatch is returned when a search finds no foods.
var ErrNoMatch = errors.New("no matching food")

// Searcher looks up nutrition facts for a free-text item name.
type Searcher interface {
	Search(ctx context.Context, name string) (model.NutritionFacts, error)
}

// USDAClient queries the FoodData Central search API.
type USDAClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	retry      common.RetryOptions
}

// USDAConfig configures the FoodData Central client.
type USDAConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retry   common.RetryOptions
}

// NewUSDAClient creates a FoodData Central client.
func NewUSDAClient(cfg USDAConfig, logger *slog.Logger) (*USDAClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("USDA API key is required: %w", common.ErrMissingCredential)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = common.DefaultRetryOptions("usda_search")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = usdaBaseURL
	}

	return &USDAClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     common.ComponentLogger(logger, "usda"),
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		retry:      cfg.Retry,
	}, nil
}

type usdaSearchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			UnitName     string  `json:"unitName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Search returns facts for the first food matching name.
func (c *USDAClient) Search(ctx context.Context, name string) (model.NutritionFacts, error) {
	var facts model.NutritionFacts

	err := common.WithRetry(ctx, c.retry, func(ctx context.Context) error {
		var searchErr error
		facts, searchErr = c.search(ctx, name)
		return searchErr
	})
	if err != nil {
		return model.NutritionFacts{}, err
	}
	return facts, nil
}

func (c *USDAClient) search(ctx context.Context, name string) (model.NutritionFacts, error) {
	params := url.Values{}
	params.Set("query", name)
	params.Set("pageSize", "1")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fdc/v1/foods/search?"+params.Encode(), nil)
	if err != nil {
		return model.NutritionFacts{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NutritionFacts{}, common.Retryable(fmt.Errorf("USDA request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NutritionFacts{}, common.Retryable(fmt.Errorf("failed to read USDA response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.NutritionFacts{}, fmt.Errorf("USDA API: %w", common.ErrRateLimit)
	case resp.StatusCode >= 500:
		return model.NutritionFacts{}, common.Retryable(fmt.Errorf("USDA API error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return model.NutritionFacts{}, fmt.Errorf("USDA API error (status %d): %s", resp.StatusCode, truncate(string(body), 256))
	}

	var parsed usdaSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.NutritionFacts{}, fmt.Errorf("failed to parse USDA response: %w", err)
	}
	if len(parsed.Foods) == 0 {
		return model.NutritionFacts{}, fmt.Errorf("%w: %q", ErrNoMatch, name)
	}

	facts := model.NutritionFacts{Item: name}
	energySet := false
	for _, n := range parsed.Foods[0].FoodNutrients {
		switch n.NutrientName {
		case "Protein":
			facts.Protein = n.Value
		case "Fiber, total dietary":
			facts.Fiber = n.Value
		case "Carbohydrate, by difference":
			facts.Carbs = n.Value
		case "Total lipid (fat)":
			facts.Fat = n.Value
		case "Energy":
			// Foods may report energy in both kcal and kJ.
			if !energySet || strings.EqualFold(n.UnitName, "KCAL") {
				facts.Calories = n.Value
				energySet = strings.EqualFold(n.UnitName, "KCAL")
			}
		}
	}

	c.logger.Debug("USDA match", "query", name, "description", parsed.Foods[0].Description)
	return facts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
