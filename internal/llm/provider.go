package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/cleo-api/internal/config"
)

// ErrNotConfigured is returned by providers built without an API key.
var ErrNotConfigured = errors.New("API key not configured")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral chat completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a bare JSON object when it supports it.
	JSON bool
}

// Provider completes a prompt and returns the raw text of the first choice.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the provider selected by cfg.LLMProvider. A missing key is not
// an error here; the returned provider reports ErrNotConfigured on use.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return Unconfigured("Anthropic"), nil
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return Unconfigured("Gemini"), nil
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTimeout)
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return Unconfigured("OpenAI"), nil
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Configured reports whether p can actually reach a model.
func Configured(p Provider) bool {
	if p == nil {
		return false
	}
	_, missing := p.(unconfigured)
	return !missing
}

// NotConfiguredMessage is the user-facing error for a provider with no key.
func NotConfiguredMessage(p Provider) string {
	name := "LLM"
	if p != nil {
		name = p.Name()
	}
	return name + " " + ErrNotConfigured.Error()
}

type unconfigured struct{ name string }

// Unconfigured returns a provider that fails every call with ErrNotConfigured.
func Unconfigured(name string) Provider { return unconfigured{name: name} }

func (u unconfigured) Name() string { return u.name }

func (u unconfigured) Complete(context.Context, Request) (string, error) {
	return "", fmt.Errorf("%s %w", u.name, ErrNotConfigured)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
