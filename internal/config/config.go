package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string // development, staging, production
	LogLevel string

	// LLM
	LLMProvider     string // openai, anthropic, gemini
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	LLMTimeout      time.Duration

	// Profile extraction: structured (LLM JSON, regex fallback) or heuristic (regex only)
	ProfileExtraction string

	// Brand lookup
	BrandfetchBaseURL string
	BrandfetchAPIKey  string
	ClearbitBaseURL   string
	LogoTimeout       time.Duration
	LogoProbeTimeout  time.Duration
	LogoCacheTTL      time.Duration

	// Crawling
	CrawlTimeout time.Duration

	// Sessions
	SessionStore string // memory, postgres, redis
	DatabaseURL  string
	RedisURL     string
	SessionTTL   time.Duration

	// Rate Limiting
	RateLimitRPS int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// .env is optional; real env vars take precedence
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		ProfileExtraction: strings.ToLower(getEnv("PROFILE_EXTRACTION", "structured")),
		BrandfetchBaseURL: getEnv("BRANDFETCH_BASE_URL", "https://api.brandfetch.io"),
		BrandfetchAPIKey:  getEnv("BRANDFETCH_API_KEY", ""),
		ClearbitBaseURL:   getEnv("CLEARBIT_BASE_URL", "https://logo.clearbit.com"),
		LogoTimeout:       getEnvDuration("LOGO_TIMEOUT", 5*time.Second),
		LogoProbeTimeout:  getEnvDuration("LOGO_PROBE_TIMEOUT", 3*time.Second),
		LogoCacheTTL:      getEnvDuration("LOGO_CACHE_TTL", 6*time.Hour),
		CrawlTimeout:      getEnvDuration("CRAWL_TIMEOUT", 10*time.Second),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", "memory")),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		RateLimitRPS:      getEnvInt("RATE_LIMIT_RPS", 10),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, anthropic, gemini (got %q)", c.LLMProvider)
	}

	switch c.ProfileExtraction {
	case "structured", "heuristic":
	default:
		return fmt.Errorf("PROFILE_EXTRACTION must be structured or heuristic (got %q)", c.ProfileExtraction)
	}

	switch c.SessionStore {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, postgres, redis (got %q)", c.SessionStore)
	}

	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}

	return nil
}

// WriteTimeout bounds a response from the slowest route. A chat turn makes
// two LLM calls (profile extraction, then the reply). A site crawl fetches
// the home page and up to five blog paths in turn, overlapping the brand
// lookup, before one analysis call.
func (c *Config) WriteTimeout() time.Duration {
	const slack = 30 * time.Second
	chat := 2 * c.LLMTimeout
	crawl := 6*c.CrawlTimeout + c.LogoTimeout + c.LLMTimeout
	return max(chat, crawl) + slack
}

// LLMAPIKey returns the key for the selected provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
