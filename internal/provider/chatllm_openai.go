package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kbstack/ragkb/internal/apperr"
)

// OpenAIChatLLM is the openai-compatible-http ChatLLM variant, grounded in
// the teacher's OpenAIProvider.ChatCompletion. It targets any OpenAI
// wire-compatible chat endpoint via a configurable base URL.
type OpenAIChatLLM struct {
	client *openai.Client
	model  string
}

func NewOpenAIChatLLM(apiKey, baseURL, model string) *OpenAIChatLLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIChatLLM{client: openai.NewClientWithConfig(cfg), model: model}
}

func (l *OpenAIChatLLM) Name() string { return "openai-compatible-http" }

func (l *OpenAIChatLLM) Probe(ctx context.Context) error {
	_, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     l.model,
		Messages:  []openai.ChatCompletionMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "chat endpoint probe failed", err)
	}
	return nil
}

func (l *OpenAIChatLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    []openai.ChatCompletionMessage{{Role: "user", Content: prompt}},
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderUnavailable, "chat request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.ProviderBadResponse, "chat endpoint returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
