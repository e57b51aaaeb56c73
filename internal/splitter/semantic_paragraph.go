package splitter

import "strings"

// SemanticParagraph is the semantic-paragraph strategy of spec.md §4.4:
// segments on blank-line paragraph boundaries first, then packs paragraphs
// up to chunk_size, only falling through to a character split for a single
// paragraph that alone exceeds chunk_size. Grounded in original_source's
// TextSplitter.split, which treats paragraph boundaries as the primary
// split point before falling back to a fixed window.
type SemanticParagraph struct{}

func (SemanticParagraph) Name() string { return "semantic-paragraph" }

func (SemanticParagraph) Split(text string, opts Options) []Chunk {
	opts = clampOptions(opts)

	paragraphs := strings.Split(text, "\n\n")
	var normalizedParas []string
	for _, p := range paragraphs {
		p = normalizeWhitespace(p)
		if p != "" {
			normalizedParas = append(normalizedParas, p)
		}
	}

	var pieces []string
	for _, p := range normalizedParas {
		if len([]rune(p)) <= opts.ChunkSize {
			pieces = append(pieces, p)
			continue
		}
		pieces = append(pieces, splitBySeparators(p, []string{". ", " "}, opts.ChunkSize)...)
	}

	packed := greedyPack(pieces, opts.ChunkSize)
	return withOverlap(packed, boundedOverlap(opts))
}
