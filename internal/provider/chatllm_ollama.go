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

// OllamaChatLLM is the local-runtime ChatLLM variant, grounded in the
// teacher's OllamaProvider.ChatCompletion.
type OllamaChatLLM struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaChatLLM(baseURL, model string) *OllamaChatLLM {
	return &OllamaChatLLM{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (l *OllamaChatLLM) Name() string { return "local-runtime" }

func (l *OllamaChatLLM) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/tags", nil)
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "build probe request", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "local chat runtime unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperr.New(apperr.ProviderUnavailable, fmt.Sprintf("local chat runtime returned %d", resp.StatusCode))
	}
	return nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *ollamaChatOptions  `json:"options,omitempty"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (l *OllamaChatLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model: l.model,
		Messages: []ollamaChatMessage{
			{Role: "user", Content: prompt},
		},
		Options: &ollamaChatOptions{Temperature: temperature},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderBadResponse, "encode chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderUnavailable, "build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderUnavailable, "chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", apperr.New(apperr.ProviderUnavailable, "model unknown: "+l.model)
	}
	if resp.StatusCode >= 400 {
		return "", apperr.New(apperr.ProviderUnavailable, fmt.Sprintf("chat runtime returned %d", resp.StatusCode))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.ProviderBadResponse, "decode chat response", err)
	}
	return out.Message.Content, nil
}
