package splitter

import "strings"

// TokenAware is the token-aware strategy of spec.md §4.4: chunk_size is
// measured in an estimated token count rather than characters, grounded in
// the teacher's pkg/tokenizer.CountTokens heuristic (~4 chars per token).
type TokenAware struct{}

func (TokenAware) Name() string { return "token-aware" }

func (TokenAware) Split(text string, opts Options) []Chunk {
	opts = clampOptions(opts)
	normalized := normalizeWhitespace(text)
	words := strings.Fields(normalized)
	overlapTokens := boundedOverlap(opts)

	var pieces []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, " "))
		current = nil
		currentTokens = 0
	}

	for _, w := range words {
		wTokens := estimateTokens(w)
		if currentTokens > 0 && currentTokens+wTokens > opts.ChunkSize {
			flush()
		}
		current = append(current, w)
		currentTokens += wTokens
	}
	flush()

	return withOverlap(pieces, overlapTokens)
}

// estimateTokens mirrors the teacher's CountTokens heuristic applied to a
// single word: roughly 4 characters per token, floored at 1.
func estimateTokens(word string) int {
	n := len(word) / 4
	if n < 1 {
		n = 1
	}
	return n
}
