package splitter

import (
	"strings"
	"testing"
)

var allStrategies = []Strategy{FixedChar{}, RecursiveSeparator{}, TokenAware{}, SemanticParagraph{}}

// TestSplit_DenseIndexing checks the 0..N-1 chunk_index invariant every
// strategy must preserve, per spec.md §8.
func TestSplit_DenseIndexing(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	for _, s := range allStrategies {
		chunks := s.Split(text, Options{ChunkSize: 200, OverlapPercent: 10, Delimiters: []string{"\n\n", "\n", ". ", " "}})
		for i, c := range chunks {
			if c.ChunkIndex != i {
				t.Errorf("%s: chunk %d has index %d, want %d", s.Name(), i, c.ChunkIndex, i)
			}
		}
	}
}

// TestSplit_Deterministic checks that splitting the same input twice
// produces identical output, per spec.md §8's determinism property.
func TestSplit_Deterministic(t *testing.T) {
	text := "# Heading\n\nSome paragraph text that is long enough to matter.\n\nAnother paragraph here with more words to fill it out."
	opts := Options{ChunkSize: 60, OverlapPercent: 20, Delimiters: []string{"\n\n", "\n", ". ", " "}}
	for _, s := range allStrategies {
		first := s.Split(text, opts)
		second := s.Split(text, opts)
		if len(first) != len(second) {
			t.Fatalf("%s: non-deterministic chunk count: %d vs %d", s.Name(), len(first), len(second))
		}
		for i := range first {
			if first[i].Content != second[i].Content {
				t.Errorf("%s: non-deterministic content at chunk %d", s.Name(), i)
			}
		}
	}
}

// TestSplit_CoversAllWords checks that the chunks, concatenated in order
// with no overlap configured, still contain every word of the input
// (coverage, up to whitespace normalization). fixed-char windows by runes
// and may cut a word across two chunks, so no separator is inserted.
func TestSplit_CoversAllWords(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau upsilon phi chi psi omega"
	for _, s := range allStrategies {
		chunks := s.Split(text, Options{ChunkSize: 30, OverlapPercent: 0, Delimiters: []string{" "}})
		joined := ""
		for _, c := range chunks {
			joined += c.Content
		}
		for _, word := range strings.Fields(text) {
			if !strings.Contains(joined, word) {
				t.Errorf("%s: lost word %q", s.Name(), word)
			}
		}
	}
}

// TestSplit_BoundedSize checks no chunk exceeds 1.5x the configured
// chunk_size even with overlap_percent near its allowed maximum. token-aware
// measures chunk_size in estimated tokens rather than characters, so it is
// checked separately in TestTokenAware_BoundedTokens.
func TestSplit_BoundedSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	charStrategies := []Strategy{FixedChar{}, RecursiveSeparator{}, SemanticParagraph{}}
	opts := Options{ChunkSize: 100, OverlapPercent: 90, Delimiters: []string{" "}}
	maxAllowed := opts.ChunkSize*3/2 + 1 // +1 for the overlap join space
	for _, s := range charStrategies {
		chunks := s.Split(text, opts)
		for i, c := range chunks {
			if c.CharCount > maxAllowed {
				t.Errorf("%s: chunk %d size %d exceeds 1.5x bound %d", s.Name(), i, c.CharCount, maxAllowed)
			}
		}
	}
}

// TestTokenAware_BoundedTokens applies the same 1.5x bound in token-aware's
// own unit, estimated tokens, since its chunk_size is not a character count.
func TestTokenAware_BoundedTokens(t *testing.T) {
	text := strings.Repeat("word ", 500)
	opts := Options{ChunkSize: 100, OverlapPercent: 90}
	maxAllowed := opts.ChunkSize * 3 / 2
	for i, c := range (TokenAware{}).Split(text, opts) {
		tokens := 0
		for _, w := range strings.Fields(c.Content) {
			tokens += estimateTokens(w)
		}
		if tokens > maxAllowed {
			t.Errorf("chunk %d has %d tokens, exceeds 1.5x bound %d", i, tokens, maxAllowed)
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, s := range allStrategies {
		chunks := s.Split("", Options{ChunkSize: 100})
		if len(chunks) != 0 {
			t.Errorf("%s: expected no chunks for empty input, got %d", s.Name(), len(chunks))
		}
	}
}

func TestForName_DefaultsToRecursive(t *testing.T) {
	if ForName("unknown-strategy").Name() != "recursive-separator" {
		t.Error("expected unknown strategy name to default to recursive-separator")
	}
	if ForName("fixed-char").Name() != "fixed-char" {
		t.Error("expected fixed-char to resolve")
	}
}
