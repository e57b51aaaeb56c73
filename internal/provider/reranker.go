package provider

import "context"

// NoneReranker is the none Reranker variant of spec.md §4.1: retrieval must
// skip reranking without error when this is selected, so there is nothing
// to do here beyond satisfying the interface.
type NoneReranker struct{}

func (NoneReranker) Name() string                            { return "none" }
func (NoneReranker) Probe(ctx context.Context) error         { return nil }
func (NoneReranker) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	scores := make([]float64, len(docs))
	return scores, nil
}
