package provider

import (
	"context"
	"crypto/sha256"
	"math"
)

// HashEmbedder is the deterministic, dependency-free embedder of spec.md
// §4.1: a SHA256-seeded unit vector. It is intended for bring-up; its
// retrieval quality is poor by design, not by bug. It is the default when
// EMBEDDING_PROVIDER is unset (see config.Load).
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) Name() string    { return "hash" }
func (e *HashEmbedder) Dimension() int  { return e.dimension }

func (e *HashEmbedder) Probe(ctx context.Context) error { return nil }

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, e.dimension)
	}
	return out, nil
}

// hashVector expands repeated SHA256 digests of text into dimension floats
// in [-1, 1], then L2-normalizes, so equal text always yields an equal
// vector and near-duplicate text tends to land nearby only by accident.
func hashVector(text string, dimension int) []float32 {
	v := make([]float32, dimension)
	seed := []byte(text)
	block := sha256.Sum256(seed)
	bi := 0
	for i := 0; i < dimension; i++ {
		if bi >= len(block) {
			block = sha256.Sum256(block[:])
			bi = 0
		}
		v[i] = float32(block[bi])/127.5 - 1
		bi++
	}
	return l2Normalize(v)
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
