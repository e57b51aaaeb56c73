package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kbstack/ragkb/internal/apperr"
)

// AnthropicChatLLM is a remote-HTTP-API ChatLLM backend alongside
// OpenAIChatLLM within spec.md's openai-compatible-http variant category —
// both are hosted, non-local providers reached over HTTPS, just with
// different wire protocols. Grounded in the teacher's AnthropicProvider.
type AnthropicChatLLM struct {
	client anthropic.Client
	model  string
}

func NewAnthropicChatLLM(apiKey, model string) *AnthropicChatLLM {
	return &AnthropicChatLLM{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (l *AnthropicChatLLM) Name() string { return "openai-compatible-http" }

func (l *AnthropicChatLLM) Probe(ctx context.Context) error {
	_, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "anthropic probe failed", err)
	}
	return nil
}

func (l *AnthropicChatLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: 4096,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	resp, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderUnavailable, "anthropic chat request failed", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", apperr.New(apperr.ProviderBadResponse, "anthropic returned no text content")
	}
	return text, nil
}
