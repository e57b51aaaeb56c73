package provider

import (
	"context"
	"fmt"

	"github.com/kbstack/ragkb/internal/config"
)

// Registry is the process-wide, immutable-after-init provider state of
// spec.md §9 ("Global state"): one Embedder, ChatLLM, Reranker,
// PdfToMarkdown chain, and OCR instance, built once at startup from config
// and never swapped at runtime. Retrieval uses these instances for every
// tenant; the provider and model fields of TenantSettings do not select
// among them.
type Registry struct {
	Embedder      Embedder
	ChatLLM       ChatLLM
	FallbackLLM   ChatLLM
	Reranker      Reranker
	PdfConverters []PdfToMarkdown // tried in order, per spec.md §4.1
	OCR           OCR
}

func NewRegistry(cfg *config.Config) (*Registry, error) {
	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	chat, err := buildChatLLM(cfg.LLM, cfg.LLM.DefaultProvider, cfg.LLM.DefaultModel)
	if err != nil {
		return nil, err
	}

	var fallback ChatLLM
	if cfg.LLM.FallbackProvider != "" {
		fallback, err = buildChatLLM(cfg.LLM, cfg.LLM.FallbackProvider, cfg.LLM.DefaultModel)
		if err != nil {
			return nil, err
		}
	}

	reranker, err := buildReranker(cfg.Rerank)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Embedder:      embedder,
		ChatLLM:       chat,
		FallbackLLM:   fallback,
		Reranker:      reranker,
		PdfConverters: []PdfToMarkdown{NewLayoutAwarePDF(), NewPlainTextPDF()},
		OCR:           NewTesseractOCR(cfg.Conversion.TesseractBin),
	}, nil
}

func buildEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "local-model":
		return NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimension), nil
	case "openai-compatible-http":
		return NewOpenAIEmbedder(cfg.OpenAIKey, "", cfg.Model, cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildChatLLM(cfg config.LLMConfig, providerName, model string) (ChatLLM, error) {
	switch providerName {
	case "ollama", "local-runtime":
		return NewOllamaChatLLM(cfg.OllamaURL, model), nil
	case "openai":
		return NewOpenAIChatLLM(cfg.OpenAIKey, "", model), nil
	case "anthropic":
		return NewAnthropicChatLLM(cfg.AnthropicKey, model), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", providerName)
	}
}

func buildReranker(cfg config.RerankConfig) (Reranker, error) {
	switch cfg.Provider {
	case "none", "":
		return NoneReranker{}, nil
	case "openai-compatible-http":
		return NewHTTPReranker(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown rerank provider %q", cfg.Provider)
	}
}

// ConvertPDF tries each configured PdfToMarkdown converter in order,
// falling through to the next on failure, per spec.md §4.1 ("layout-aware
// is tried first; failure cascades to plain-text").
func (r *Registry) ConvertPDF(ctx context.Context, pdfBytes []byte) (string, error) {
	var lastErr error
	for _, conv := range r.PdfConverters {
		text, err := conv.Convert(ctx, pdfBytes)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Probe runs every configured adapter's connectivity check, for the
// diagnostics endpoint of spec.md's supplemented admin surface.
func (r *Registry) Probe(ctx context.Context) map[string]error {
	results := map[string]error{
		"embedder:" + r.Embedder.Name(): r.Embedder.Probe(ctx),
		"chatllm:" + r.ChatLLM.Name():   r.ChatLLM.Probe(ctx),
		"reranker:" + r.Reranker.Name(): r.Reranker.Probe(ctx),
		"ocr:" + r.OCR.Name():           r.OCR.Probe(ctx),
	}
	if r.FallbackLLM != nil {
		results["chatllm-fallback:"+r.FallbackLLM.Name()] = r.FallbackLLM.Probe(ctx)
	}
	for _, c := range r.PdfConverters {
		results["pdf:"+c.Name()] = c.Probe(ctx)
	}
	return results
}
