package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/ratelimit"
	"github.com/kbstack/ragkb/internal/vectorstore"
)

type fakeChatLLM struct {
	name  string
	calls int
	fail  int // number of leading calls that fail with kind before succeeding
	kind  apperr.Kind
}

func (f *fakeChatLLM) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	if f.calls <= f.fail {
		return "", apperr.New(f.kind, "temporary failure")
	}
	return "answer from " + f.name, nil
}

func (f *fakeChatLLM) Name() string                   { return f.name }
func (f *fakeChatLLM) Probe(ctx context.Context) error { return nil }

func newRetrievalTestService(primary, fallback provider.ChatLLM, maxRetries int) *Service {
	return &Service{
		providers:  &provider.Registry{ChatLLM: primary, FallbackLLM: fallback},
		limits:     ratelimit.New(1000, 1000),
		maxRetries: maxRetries,
	}
}

func TestSortHits_ScoreThenTieBreak(t *testing.T) {
	hits := []vectorstore.SearchHit{
		{DocumentID: 2, ChunkIndex: 0, Score: 0.5},
		{DocumentID: 1, ChunkIndex: 1, Score: 0.9},
		{DocumentID: 1, ChunkIndex: 0, Score: 0.9},
		{DocumentID: 3, ChunkIndex: 0, Score: 0.9},
	}
	sortHits(hits)

	want := []struct{ doc, idx int64 }{
		{1, 0}, {1, 1}, {3, 0}, {2, 0},
	}
	for i, w := range want {
		if hits[i].DocumentID != w.doc || int64(hits[i].ChunkIndex) != w.idx {
			t.Errorf("position %d: got doc=%d idx=%d, want doc=%d idx=%d", i, hits[i].DocumentID, hits[i].ChunkIndex, w.doc, w.idx)
		}
	}
}

func TestResolveScope_NonAdminAlwaysSelf(t *testing.T) {
	s := &Service{}
	asking := models.Tenant{ID: 5, Role: models.RoleUser}

	for _, scope := range []string{"", "self", "all", "user(99)"} {
		ids, err := s.resolveScope(asking, scope)
		if err != nil {
			t.Fatalf("scope %q: unexpected error: %v", scope, err)
		}
		if len(ids) != 1 || ids[0] != 5 {
			t.Errorf("scope %q: non-admin must be confined to own tenant, got %v", scope, ids)
		}
	}
}

func TestResolveScope_AdminScopes(t *testing.T) {
	s := &Service{}
	admin := models.Tenant{ID: 1, Role: models.RoleAdmin}

	ids, err := s.resolveScope(admin, "")
	if err != nil || len(ids) != 1 || ids[0] != 1 {
		t.Errorf("default scope should resolve to self, got %v, %v", ids, err)
	}

	ids, err = s.resolveScope(admin, "all")
	if err != nil || ids != nil {
		t.Errorf("scope=all should resolve to nil (no owner filter), got %v, %v", ids, err)
	}

	ids, err = s.resolveScope(admin, "user(42)")
	if err != nil || len(ids) != 1 || ids[0] != 42 {
		t.Errorf("scope=user(42) should resolve to [42], got %v, %v", ids, err)
	}

	_, err = s.resolveScope(admin, "user(abc)")
	if err == nil || !apperr.Is(err, apperr.Validation) {
		t.Errorf("malformed user() scope should be a Validation error, got %v", err)
	}

	_, err = s.resolveScope(admin, "bogus")
	if err == nil || !apperr.Is(err, apperr.Validation) {
		t.Errorf("unknown scope should be a Validation error, got %v", err)
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct{ v, min, max, want int }{
		{5, 1, 50, 5},
		{0, 1, 50, 1},
		{100, 1, 50, 50},
	}
	for _, c := range cases {
		if got := clampInt(c.v, c.min, c.max); got != c.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", c.v, c.min, c.max, got, c.want)
		}
	}
}

func TestClampFloat(t *testing.T) {
	cases := []struct{ v, min, max, want float64 }{
		{0.5, 0, 2, 0.5},
		{-1, 0, 2, 0},
		{3, 0, 2, 2},
	}
	for _, c := range cases {
		if got := clampFloat(c.v, c.min, c.max); got != c.want {
			t.Errorf("clampFloat(%v, %v, %v) = %v, want %v", c.v, c.min, c.max, got, c.want)
		}
	}
}

func TestGenerate_RetriesTransientFailureThenSucceeds(t *testing.T) {
	primary := &fakeChatLLM{name: "primary", fail: 2, kind: apperr.ProviderBusy}
	s := newRetrievalTestService(primary, nil, 2)

	answer, err := s.generate(context.Background(), "prompt", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "answer from primary" {
		t.Errorf("expected the primary provider's answer, got %q", answer)
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 calls (2 failures + 1 success), got %d", primary.calls)
	}
}

func TestGenerate_FallsBackToFallbackLLMOnProviderUnavailable(t *testing.T) {
	primary := &fakeChatLLM{name: "primary", fail: 1, kind: apperr.ProviderUnavailable}
	fallback := &fakeChatLLM{name: "fallback"}
	s := newRetrievalTestService(primary, fallback, 0)

	answer, err := s.generate(context.Background(), "prompt", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "answer from fallback" {
		t.Errorf("expected the fallback provider's answer, got %q", answer)
	}
}

func TestGenerate_NoFallbackConfiguredReturnsError(t *testing.T) {
	primary := &fakeChatLLM{name: "primary", fail: 1, kind: apperr.ProviderUnavailable}
	s := newRetrievalTestService(primary, nil, 0)

	_, err := s.generate(context.Background(), "prompt", 0.5)
	if !apperr.Is(err, apperr.ProviderUnavailable) {
		t.Errorf("expected ProviderUnavailable, got %v", err)
	}
}

func TestBuildPrompt_CitesSources(t *testing.T) {
	sources := []Source{
		{DocumentID: 3, ChunkIndex: 1, Content: "the sky is blue"},
	}
	prompt := buildPrompt("why is the sky blue?", sources)
	if !strings.Contains(prompt, "[3:1]") {
		t.Errorf("prompt should cite source as [3:1], got %q", prompt)
	}
	if !strings.Contains(prompt, "the sky is blue") {
		t.Error("prompt should include source content")
	}
	if !strings.Contains(prompt, "why is the sky blue?") {
		t.Error("prompt should include the question")
	}
}

func TestDegradedAnswer_NoSources(t *testing.T) {
	msg := degradedAnswer(nil)
	if !strings.Contains(msg, "no relevant sources") {
		t.Errorf("expected a no-sources message, got %q", msg)
	}
}

func TestDegradedAnswer_WithSources(t *testing.T) {
	msg := degradedAnswer([]Source{{DocumentID: 1, ChunkIndex: 0}})
	if strings.Contains(msg, "no relevant sources") {
		t.Errorf("message should not claim no sources were found, got %q", msg)
	}
}
