package splitter

// FixedChar is the fixed-char strategy of spec.md §4.4: a sliding window
// over runes, grounded in the teacher's pkg/chunker chunkFixed.
type FixedChar struct{}

func (FixedChar) Name() string { return "fixed-char" }

func (FixedChar) Split(text string, opts Options) []Chunk {
	opts = clampOptions(opts)
	normalized := normalizeWhitespace(text)
	runes := []rune(normalized)
	overlap := boundedOverlap(opts)

	step := opts.ChunkSize - overlap
	if step <= 0 {
		step = opts.ChunkSize
	}

	var chunks []Chunk
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + opts.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		content := string(runes[start:end])
		chunks = append(chunks, Chunk{Content: content, ChunkIndex: idx, CharCount: len([]rune(content))})
		idx++
		if end == len(runes) {
			break
		}
	}
	if len(chunks) == 0 && len(runes) == 0 {
		return nil
	}
	return chunks
}

// boundedOverlap caps the overlap contribution so that a configured
// overlap_percent near the allowed maximum (90) can never push a chunk
// above the 1.5x chunk_size bound required of every strategy.
func boundedOverlap(opts Options) int {
	ov := overlapSize(opts)
	maxOverlap := opts.ChunkSize / 2
	if ov > maxOverlap {
		return maxOverlap
	}
	return ov
}
