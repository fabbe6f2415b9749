package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const jsonOnlyInstruction = "Respond with ONLY a JSON object (no markdown, no backticks, no explanation)."

// AnthropicProvider wraps the Anthropic Messages API.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

func NewAnthropicProvider(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicProvider {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client:  anthropic.NewClient(reqOpts...),
		model:   model,
		timeout: timeout,
	}
}

func (a *AnthropicProvider) Name() string {
	return "Anthropic"
}

func (a *AnthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	system := req.System
	if req.JSON {
		// No native JSON mode; ask for it in the system prompt instead.
		system = strings.TrimSpace(system + "\n\n" + jsonOnlyInstruction)
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages:    messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling Anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
