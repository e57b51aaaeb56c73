// Package provider implements the fixed capability interfaces of spec.md
// §4.1 (C1): Embedder, ChatLLM, Reranker, PdfToMarkdown, and OCR, each with
// enumerated variants selected by deployment config.
package provider

import "context"

// Embedder produces L2-normalized vectors of a fixed dimension. Variants:
// hash, local-model, openai-compatible-http.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
	Probe(ctx context.Context) error
}

// ChatLLM generates text from a prompt. Variants: local-runtime,
// openai-compatible-http. Fails with apperr.ProviderUnavailable if
// unreachable or the model is unknown.
type ChatLLM interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	Name() string
	Probe(ctx context.Context) error
}

// Reranker scores a query against candidate documents. Variants: none,
// openai-compatible-http. The none variant is a legitimate configuration,
// not a degraded one — callers must skip reranking without error.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]float64, error)
	Name() string
	Probe(ctx context.Context) error
}

// PdfToMarkdown converts PDF bytes to Markdown text. Variants:
// layout-aware-engine, plain-text-extractor.
type PdfToMarkdown interface {
	Convert(ctx context.Context, pdfBytes []byte) (string, error)
	Name() string
	Probe(ctx context.Context) error
}

// OCR extracts text from PDF bytes when PdfToMarkdown output falls below
// the configured min_text_chars floor.
type OCR interface {
	Extract(ctx context.Context, pdfBytes []byte) (string, error)
	Name() string
	Probe(ctx context.Context) error
}
