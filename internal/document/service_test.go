package document

import (
	"context"
	"strings"
	"testing"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

func TestSplitMarkdown_MarksChunksIncluded(t *testing.T) {
	cfg := SplitterConfig{Strategy: "fixed-char", ChunkSize: 50, OverlapPercent: 10}
	chunks := SplitMarkdown(strings.Repeat("word ", 100), cfg)

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if !c.Included {
			t.Errorf("chunk %d should default to included", i)
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
	}
}

func TestSplitMarkdown_UnknownStrategyDefaults(t *testing.T) {
	cfg := SplitterConfig{Strategy: "does-not-exist", ChunkSize: 100}
	chunks := SplitMarkdown("some text to split into chunks of content", cfg)
	if len(chunks) == 0 {
		t.Fatal("expected the default recursive-separator strategy to still produce chunks")
	}
}

func TestPreviewOf_EmptyChunks(t *testing.T) {
	if got := previewOf(nil); got != "" {
		t.Errorf("expected empty preview for no chunks, got %q", got)
	}
}

func TestPreviewOf_TruncatesAt280(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := previewOf([]models.Chunk{{Content: long}})
	if len(got) != 280 {
		t.Errorf("expected preview truncated to 280 chars, got %d", len(got))
	}
}

func TestPreviewOf_ShortContentUnchanged(t *testing.T) {
	got := previewOf([]models.Chunk{{Content: "short"}})
	if got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestCreateChunk_RejectsEmptyContent(t *testing.T) {
	s := &Service{}
	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := s.CreateChunk(context.Background(), 1, 1, false, content, false)
		if !apperr.Is(err, apperr.Validation) {
			t.Errorf("content %q: expected Validation error, got %v", content, err)
		}
	}
}

func TestUpdateChunk_RejectsEmptyContent(t *testing.T) {
	s := &Service{}
	blank := "   "
	_, err := s.UpdateChunk(context.Background(), 1, 1, false, 0, UpdateChunkRequest{Content: &blank}, false)
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected Validation error, got %v", err)
	}
}
