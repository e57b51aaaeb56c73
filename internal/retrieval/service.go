// Package retrieval implements the retrieval service (C7) of spec.md
// §4.7: indexing included chunks into the vector store, and the query path
// that embeds, searches, optionally reranks, and generates a grounded
// answer with citations.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/ratelimit"
	"github.com/kbstack/ragkb/internal/tenant"
	"github.com/kbstack/ragkb/internal/vectorstore"
)

const embedBatchSize = 100

type chunkReader interface {
	listChunks(ctx context.Context, documentID int64) ([]models.Chunk, error)
	getByID(ctx context.Context, id int64) (models.Document, error)
	setIndexedAt(ctx context.Context, id int64) error
	getChunkContent(ctx context.Context, documentID int64, chunkIndex int) (string, error)
}

type Service struct {
	repo       chunkReader
	vectors    vectorstore.Store
	providers  *provider.Registry
	settings   *tenant.SettingsStore
	limits     *ratelimit.Limiters
	maxRetries int
}

func NewService(db *pgxpool.Pool, vectors vectorstore.Store, providers *provider.Registry, settings *tenant.SettingsStore, limits *ratelimit.Limiters, maxRetries int) *Service {
	return &Service{
		repo:       &pgChunkReader{db: db},
		vectors:    vectors,
		providers:  providers,
		settings:   settings,
		limits:     limits,
		maxRetries: maxRetries,
	}
}

func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limits.Allow(ctx, "embedder:"+s.providers.Embedder.Name()); err != nil {
		return nil, err
	}
	return s.providers.Embedder.Embed(ctx, texts)
}

// generate calls the primary ChatLLM with bounded retry, then falls back to
// the configured fallback provider on PROVIDER_UNAVAILABLE, the same
// primary-then-fallback shape as the teacher's llm.Gateway.Chat.
func (s *Service) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	answer, err := s.generateWithRetry(ctx, s.providers.ChatLLM, prompt, temperature)
	if err != nil && s.providers.FallbackLLM != nil && apperr.Is(err, apperr.ProviderUnavailable) {
		slog.Warn("primary chatllm failed, trying fallback",
			"primary", s.providers.ChatLLM.Name(),
			"fallback", s.providers.FallbackLLM.Name(),
			"error", err,
		)
		return s.generateWithRetry(ctx, s.providers.FallbackLLM, prompt, temperature)
	}
	return answer, err
}

func (s *Service) generateWithRetry(ctx context.Context, llm provider.ChatLLM, prompt string, temperature float64) (string, error) {
	if err := s.limits.Allow(ctx, "chatllm:"+llm.Name()); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying chatllm call", "provider", llm.Name(), "attempt", attempt)
		}
		answer, err := llm.Generate(ctx, prompt, temperature)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if !apperr.Is(err, apperr.ProviderUnavailable) && !apperr.Is(err, apperr.ProviderBusy) {
			break
		}
	}
	return "", lastErr
}

// IndexDocument runs the five-step indexing path of spec.md §4.7.
func (s *Service) IndexDocument(ctx context.Context, documentID int64) error {
	doc, err := s.repo.getByID(ctx, documentID)
	if err != nil {
		return err
	}

	chunks, err := s.repo.listChunks(ctx, documentID)
	if err != nil {
		return err
	}
	var included []models.Chunk
	for _, c := range chunks {
		if c.Included {
			included = append(included, c)
		}
	}
	if len(included) == 0 {
		return s.repo.setIndexedAt(ctx, documentID)
	}

	if err := s.vectors.EnsureCollection(ctx, s.providers.Embedder.Dimension()); err != nil {
		return err
	}
	if err := s.vectors.EnsurePartition(ctx, doc.OwnerID); err != nil {
		return err
	}

	vectors := make([]vectorstore.Vector, 0, len(included))
	for start := 0; start < len(included); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(included) {
			end = len(included)
		}
		batch := included[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		embeddings, err := s.embed(ctx, texts)
		if err != nil {
			return err
		}
		for i, c := range batch {
			vectors = append(vectors, vectorstore.Vector{
				DocumentID: c.DocumentID,
				ChunkIndex: c.ChunkIndex,
				Embedding:  embeddings[i],
			})
		}
	}

	if err := s.vectors.Upsert(ctx, doc.OwnerID, vectors); err != nil {
		return err
	}
	return s.repo.setIndexedAt(ctx, documentID)
}

type QueryOptions struct {
	TopK        *int // nil means "use the tenant default"; explicit 0 is rejected by the caller
	Temperature float64
	Rerank      *bool
	Scope       string // "", "self", "all", or "user(<id>)"
}

type Source struct {
	DocumentID int64   `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type QueryResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	Degraded   bool     `json:"degraded,omitempty"`
}

// Query implements the query path of spec.md §4.7.
func (s *Service) Query(ctx context.Context, asking models.Tenant, text string, opts QueryOptions) (QueryResult, error) {
	settings, err := s.settings.Get(ctx, asking.ID)
	if err != nil {
		return QueryResult{}, err
	}

	topK := settings.TopK
	if opts.TopK != nil {
		if *opts.TopK < 1 {
			return QueryResult{}, apperr.New(apperr.Validation, "top_k must be at least 1")
		}
		topK = *opts.TopK
	}
	topK = clampInt(topK, 1, 50)

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = settings.Temperature
	}
	temperature = clampFloat(temperature, 0, 2)

	rerankEnabled := settings.RerankEnabled
	if opts.Rerank != nil {
		rerankEnabled = *opts.Rerank
	}
	if _, none := s.providers.Reranker.(provider.NoneReranker); none {
		rerankEnabled = false
	}

	ownerIDs, err := s.resolveScope(asking, opts.Scope)
	if err != nil {
		return QueryResult{}, err
	}

	queryVec, err := s.embed(ctx, []string{text})
	if err != nil {
		return QueryResult{}, err
	}

	topKRetrieve := topK
	if rerankEnabled {
		topKRetrieve = 4 * topK
	}
	if topKRetrieve > 100 {
		topKRetrieve = 100
	}

	hits, err := s.vectors.Search(ctx, ownerIDs, queryVec[0], topKRetrieve)
	if err != nil {
		return QueryResult{}, err
	}
	sortHits(hits)

	sources := s.toSources(ctx, hits)

	if rerankEnabled {
		sources, err = s.rerank(ctx, text, sources)
		if err != nil {
			return QueryResult{}, err
		}
	}
	if len(sources) > topK {
		sources = sources[:topK]
	}

	confidence := 0.0
	for _, src := range sources {
		if src.Score > confidence {
			confidence = src.Score
		}
	}
	confidence = clampFloat(confidence, 0, 1)

	answer, err := s.generate(ctx, buildPrompt(text, sources), temperature)
	if err != nil {
		if apperr.Is(err, apperr.ProviderUnavailable) {
			return QueryResult{
				Answer:     degradedAnswer(sources),
				Sources:    sources,
				Confidence: confidence,
				Degraded:   true,
			}, nil
		}
		return QueryResult{}, err
	}

	return QueryResult{Answer: answer, Sources: sources, Confidence: confidence}, nil
}

func (s *Service) resolveScope(asking models.Tenant, scope string) ([]int64, error) {
	if !asking.IsAdmin() {
		return []int64{asking.ID}, nil
	}
	switch {
	case scope == "" || scope == "self":
		return []int64{asking.ID}, nil
	case scope == "all":
		return nil, nil
	case strings.HasPrefix(scope, "user("):
		var uid int64
		if _, err := fmt.Sscanf(scope, "user(%d)", &uid); err != nil {
			return nil, apperr.New(apperr.Validation, "invalid scope: "+scope)
		}
		return []int64{uid}, nil
	default:
		return nil, apperr.New(apperr.Validation, "invalid scope: "+scope)
	}
}

func (s *Service) rerank(ctx context.Context, query string, sources []Source) ([]Source, error) {
	docs := make([]string, len(sources))
	for i, src := range sources {
		docs[i] = src.Content
	}
	scores, err := s.providers.Reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, err
	}
	for i := range sources {
		if i < len(scores) {
			sources[i].Score = scores[i]
		}
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Score > sources[j].Score })
	return sources, nil
}

func (s *Service) toSources(ctx context.Context, hits []vectorstore.SearchHit) []Source {
	sources := make([]Source, len(hits))
	for i, h := range hits {
		content, err := s.repo.getChunkContent(ctx, h.DocumentID, h.ChunkIndex)
		if err != nil {
			content = ""
		}
		sources[i] = Source{DocumentID: h.DocumentID, ChunkIndex: h.ChunkIndex, Score: h.Score, Content: content}
	}
	return sources
}

// sortHits applies the tie-break rule of spec.md §4.7: higher score first,
// then smaller (document_id, chunk_index).
func sortHits(hits []vectorstore.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
}

func buildPrompt(question string, sources []Source) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. Cite sources as [document_id:chunk_index].\n\n")
	for _, src := range sources {
		fmt.Fprintf(&b, "[%d:%d] %s\n\n", src.DocumentID, src.ChunkIndex, src.Content)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

func degradedAnswer(sources []Source) string {
	if len(sources) == 0 {
		return "The answer service is temporarily unavailable and no relevant sources were found."
	}
	return "The answer service is temporarily unavailable. Showing the most relevant sources instead of a generated answer."
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
