// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	StaticDir   string
	ChartsDir   string

	LLM LLMConfig
}

// LLMConfig selects and parameterizes the model provider.
type LLMConfig struct {
	Provider    string // "openai" or "gemini"
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint override (e.g. NVIDIA)
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		// Provider-specific fallbacks kept for compatibility with older deploys.
		if provider == ProviderGemini {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		} else {
			apiKey = os.Getenv("NVIDIA_API_KEY")
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
		}
	}

	defaultModel := "openai/gpt-oss-120b"
	if provider == ProviderGemini {
		defaultModel = "gemini-2.0-flash"
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/chat.db"),
		StaticDir:   getEnv("STATIC_DIR", "./static"),
		ChartsDir:   getEnv("CHARTS_DIR", "./static/charts"),
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      apiKey,
			BaseURL:     getEnv("LLM_BASE_URL", "https://integrate.api.nvidia.com/v1"),
			Model:       getEnv("LLM_MODEL", defaultModel),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 1),
			TopP:        getEnvFloat("LLM_TOP_P", 1),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.StaticDir == "" {
		return fmt.Errorf("STATIC_DIR cannot be empty")
	}
	if c.ChartsDir == "" {
		return fmt.Errorf("CHARTS_DIR cannot be empty")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}
