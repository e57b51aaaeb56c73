package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kbstack/ragkb/internal/apperr"
)

// OpenAIEmbedder is the openai-compatible-http Embedder variant, grounded
// in the teacher's OpenAIProvider.GenerateEmbedding. It targets any
// OpenAI-wire-compatible embedding endpoint, not just OpenAI itself.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

func NewOpenAIEmbedder(apiKey, baseURL, model string, dimension int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func (e *OpenAIEmbedder) Name() string   { return "openai-compatible-http" }
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

func (e *OpenAIEmbedder) Probe(ctx context.Context) error {
	_, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{"ping"},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "embedding endpoint probe failed", err)
	}
	return nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderUnavailable, "embedding request failed", err)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != e.dimension {
			return nil, apperr.New(apperr.DimensionMismatch,
				fmt.Sprintf("embedding %d has dimension %d, want %d", i, len(d.Embedding), e.dimension))
		}
		out[i] = l2Normalize(d.Embedding)
	}
	return out, nil
}
