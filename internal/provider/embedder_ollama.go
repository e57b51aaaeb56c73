package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbstack/ragkb/internal/apperr"
)

// OllamaEmbedder is the local-model Embedder variant, grounded in the
// teacher's OllamaProvider.GenerateEmbedding, calling a local inference
// runtime's /api/embed endpoint.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
}

func NewOllamaEmbedder(baseURL, model string, dimension int) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (e *OllamaEmbedder) Name() string   { return "local-model" }
func (e *OllamaEmbedder) Dimension() int { return e.dimension }

func (e *OllamaEmbedder) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "build probe request", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "local embedding runtime unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperr.New(apperr.ProviderUnavailable, fmt.Sprintf("local embedding runtime returned %d", resp.StatusCode))
	}
	return nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderBadResponse, "encode embed request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderUnavailable, "build embed request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderUnavailable, "embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.ProviderUnavailable, fmt.Sprintf("embedding runtime returned %d", resp.StatusCode))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.ProviderBadResponse, "decode embed response", err)
	}

	for i, v := range out.Embeddings {
		if len(v) != e.dimension {
			return nil, apperr.New(apperr.DimensionMismatch,
				fmt.Sprintf("embedding %d has dimension %d, want %d", i, len(v), e.dimension))
		}
		out.Embeddings[i] = l2Normalize(v)
	}
	return out.Embeddings, nil
}
