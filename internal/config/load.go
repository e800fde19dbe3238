package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/raseed/internal/common"
)

// Provider credential environment variables, consulted when the config
// file and RASEED_ variables leave the key unset.
var providerKeyEnv = map[string]string{
	"gemini":    "GOOGLE_GEMINI_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// LLM holds model provider settings.
type LLM struct {
	Provider    string
	Model       string
	APIKey      string
	Timeout     time.Duration
	CacheTTL    time.Duration
	Temperature float64
	MaxTokens   int
	RateLimit   int
}

// Nutrition holds nutrition lookup settings.
type Nutrition struct {
	CachePath  string
	USDAAPIKey string
}

// Coach holds coaching settings.
type Coach struct {
	Budget       float64
	WordBoundary bool
}

// SetDefaults registers default values for every key raseed reads.
func SetDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.rate_limit", 60)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("database.path", DefaultDatabasePath)
	viper.SetDefault("nutrition.cache_path", DefaultNutritionPath)
	viper.SetDefault("coach.budget", 1000.0)
	viper.SetDefault("coach.word_boundary", false)
}

// LoadLLM loads provider settings from viper, falling back to the
// provider's conventional environment variable for the API key. A missing
// key is not an error; callers treat it as "not configured".
func LoadLLM() (LLM, error) {
	cfg := LLM{
		Provider:    strings.ToLower(strings.TrimSpace(viper.GetString("llm.provider"))),
		Model:       viper.GetString("llm.model"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Temperature: viper.GetFloat64("llm.temperature"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Timeout:     viper.GetDuration("llm.timeout"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}

	envName, ok := providerKeyEnv[cfg.Provider]
	if !ok {
		return LLM{}, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}

	cfg.APIKey = viper.GetString("llm." + cfg.Provider + "_api_key")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envName)
	}

	if cfg.MaxTokens < 0 {
		return LLM{}, fmt.Errorf("%w: llm.max_tokens must not be negative", common.ErrInvalidConfig)
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return LLM{}, fmt.Errorf("%w: llm.temperature must be between 0 and 2", common.ErrInvalidConfig)
	}
	if cfg.RateLimit < 0 {
		return LLM{}, fmt.Errorf("%w: llm.rate_limit must not be negative", common.ErrInvalidConfig)
	}

	return cfg, nil
}

// KeyEnv returns the environment variable holding the provider's API key.
func KeyEnv(provider string) string {
	return providerKeyEnv[strings.ToLower(provider)]
}

// LoadNutrition loads nutrition settings. The USDA key falls back to USDA_API_KEY.
func LoadNutrition() Nutrition {
	cfg := Nutrition{
		CachePath:  PathOrDefault(viper.GetString("nutrition.cache_path"), DefaultNutritionPath),
		USDAAPIKey: viper.GetString("nutrition.usda_api_key"),
	}
	if cfg.USDAAPIKey == "" {
		cfg.USDAAPIKey = os.Getenv("USDA_API_KEY")
	}
	return cfg
}

// LoadCoach loads coaching settings.
func LoadCoach() (Coach, error) {
	cfg := Coach{
		Budget:       viper.GetFloat64("coach.budget"),
		WordBoundary: viper.GetBool("coach.word_boundary"),
	}
	if cfg.Budget < 0 {
		return Coach{}, fmt.Errorf("%w: coach.budget must not be negative", common.ErrInvalidConfig)
	}
	return cfg, nil
}

// DatabasePath returns the expanded SQLite database path.
func DatabasePath() string {
	return PathOrDefault(viper.GetString("database.path"), DefaultDatabasePath)
}
