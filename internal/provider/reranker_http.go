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

// HTTPReranker is the openai-compatible-http Reranker variant, grounded in
// original_source's RerankService.rerank_xinference: POST {base_url}/v1/rerank
// and score the candidates, generalized away from one rerank server vendor.
type HTTPReranker struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPReranker(baseURL, apiKey, model string) *HTTPReranker {
	return &HTTPReranker{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPReranker) Name() string { return "openai-compatible-http" }

func (r *HTTPReranker) Probe(ctx context.Context) error {
	_, err := r.Rerank(ctx, "ping", []string{"pong"})
	if err != nil {
		return err
	}
	return nil
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResultItem struct {
	Index          int     `json:"index"`
	Score          float64 `json:"score"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResultItem `json:"results"`
}

func (r *HTTPReranker) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequest{Model: r.model, Query: query, Documents: docs})
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderBadResponse, "encode rerank request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderUnavailable, "build rerank request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderUnavailable, "rerank request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperr.New(apperr.ProviderUnavailable, fmt.Sprintf("rerank endpoint returned %d", resp.StatusCode))
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.ProviderBadResponse, "decode rerank response", err)
	}

	scores := make([]float64, len(docs))
	for _, item := range out.Results {
		if item.Index < 0 || item.Index >= len(scores) {
			continue
		}
		score := item.RelevanceScore
		if score == 0 {
			score = item.Score
		}
		scores[item.Index] = score
	}
	return scores, nil
}
