package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want openai default", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "https://integrate.api.nvidia.com/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "openai/gpt-oss-120b" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 1 || cfg.LLM.TopP != 1 {
		t.Errorf("Sampling = (%v, %v), want (1, 1)", cfg.LLM.Temperature, cfg.LLM.TopP)
	}
}

func TestLoadGeminiDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "g-key" {
		t.Errorf("APIKey = %q, want GOOGLE_API_KEY fallback", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mystery")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject unknown providers")
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Port:      "8000",
		DBPath:    "x.db",
		StaticDir: "static",
		ChartsDir: "charts",
		LLM:       LLMConfig{Provider: ProviderOpenAI, MaxTokens: 100},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	broken := *valid
	broken.LLM.MaxTokens = 0
	if err := broken.Validate(); err == nil {
		t.Error("Validate() should reject non-positive max tokens")
	}
}
