package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PROFILE_EXTRACTION", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, "structured", cfg.ProfileExtraction)
	assert.Equal(t, 10*time.Second, cfg.CrawlTimeout)
	assert.Equal(t, 5*time.Second, cfg.LogoTimeout)
	assert.Equal(t, 3*time.Second, cfg.LogoProbeTimeout)
	assert.Empty(t, cfg.LLMAPIKey(), "a missing key is not a load error")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("CRAWL_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "g-key", cfg.LLMAPIKey())
	assert.Equal(t, 2*time.Second, cfg.CrawlTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.RateLimitRPS)
}

func TestLoad_InvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"LLM_PROVIDER": "cohere"}},
		{"postgres without url", map[string]string{"SESSION_STORE": "postgres", "DATABASE_URL": ""}},
		{"redis without url", map[string]string{"SESSION_STORE": "redis", "REDIS_URL": ""}},
		{"unknown store", map[string]string{"SESSION_STORE": "mongo"}},
		{"unknown extraction", map[string]string{"PROFILE_EXTRACTION": "magic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_WriteTimeout(t *testing.T) {
	cfg := &Config{LLMTimeout: 60 * time.Second, CrawlTimeout: 10 * time.Second, LogoTimeout: 5 * time.Second}
	// Crawl: 6*10s + 5s + 60s = 125s beats two LLM calls (120s).
	assert.Equal(t, 155*time.Second, cfg.WriteTimeout())

	cfg.LLMTimeout = 2 * time.Minute
	assert.Equal(t, 4*time.Minute+30*time.Second, cfg.WriteTimeout())
	assert.Greater(t, cfg.WriteTimeout(), 2*cfg.LLMTimeout)
}
