package splitter

import "strings"

// RecursiveSeparator is the recursive-separator strategy of spec.md §4.4:
// split on the configured delimiters in order, falling back to a fixed
// character split for any piece too long to bound by delimiters alone.
// Grounded in the teacher's pkg/chunker chunkRecursive/splitRecursive,
// generalized from a hardcoded separator list to opts.Delimiters.
type RecursiveSeparator struct{}

func (RecursiveSeparator) Name() string { return "recursive-separator" }

func (RecursiveSeparator) Split(text string, opts Options) []Chunk {
	opts = clampOptions(opts)
	delimiters := opts.Delimiters
	if len(delimiters) == 0 {
		delimiters = []string{"\n\n", "\n", ". ", " "}
	}

	normalized := normalizeWhitespace(text)
	pieces := splitBySeparators(normalized, delimiters, opts.ChunkSize)
	packed := greedyPack(pieces, opts.ChunkSize)
	return withOverlap(packed, boundedOverlap(opts))
}

func splitBySeparators(text string, separators []string, chunkSize int) []string {
	if len([]rune(text)) <= chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	if len(separators) == 0 {
		runes := []rune(text)
		var result []string
		for i := 0; i < len(runes); i += chunkSize {
			end := i + chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			result = append(result, string(runes[i:end]))
		}
		return result
	}

	sep := separators[0]
	parts := strings.Split(text, sep)
	var result []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		result = append(result, splitBySeparators(current.String(), separators[1:], chunkSize)...)
		current.Reset()
	}

	for _, part := range parts {
		candidate := part
		if current.Len() > 0 {
			candidate = current.String() + sep + part
		}
		if current.Len() > 0 && len([]rune(candidate)) > chunkSize {
			flush()
			current.WriteString(part)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
	}
	flush()
	return result
}

// greedyPack merges adjacent pieces up to chunkSize, preserving order.
func greedyPack(pieces []string, chunkSize int) []string {
	var packed []string
	var current strings.Builder

	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len() > 0 && len([]rune(current.String()))+1+len([]rune(p)) > chunkSize {
			packed = append(packed, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		packed = append(packed, current.String())
	}
	return packed
}

// withOverlap prepends the trailing overlap runes of each chunk to the
// next, so callers can reconstruct coverage by trimming that known prefix
// length off every chunk but the first.
func withOverlap(pieces []string, overlap int) []Chunk {
	if len(pieces) == 0 {
		return nil
	}
	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		content := p
		if i > 0 && overlap > 0 {
			prevRunes := []rune(pieces[i-1])
			start := len(prevRunes) - overlap
			if start < 0 {
				start = 0
			}
			content = string(prevRunes[start:]) + " " + p
		}
		chunks[i] = Chunk{Content: content, ChunkIndex: i, CharCount: len([]rune(content))}
	}
	return chunks
}
