package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kbstack/ragkb/internal/apperr"
)

// InMemoryStore is a dependency-free Store used in tests and for local
// development without Postgres. Scores are inner-product based, normalized
// to [0,1] via (ip+1)/2, mirroring how the system this spec was distilled
// from mapped Milvus's IP metric.
type InMemoryStore struct {
	mu        sync.Mutex
	dimension int
	rows      map[string]map[int64]Vector // partition -> pk -> vector
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]map[int64]Vector)}
}

func (s *InMemoryStore) EnsureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return apperr.New(apperr.DimensionMismatch,
			fmt.Sprintf("collection dimension %d does not match configured dimension %d", s.dimension, dimension))
	}
	s.dimension = dimension
	return nil
}

func (s *InMemoryStore) EnsurePartition(ctx context.Context, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Partition(ownerID)
	if _, ok := s.rows[p]; !ok {
		s.rows[p] = make(map[int64]Vector)
	}
	return nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, ownerID int64, vectors []Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Partition(ownerID)
	if _, ok := s.rows[p]; !ok {
		s.rows[p] = make(map[int64]Vector)
	}
	for _, v := range vectors {
		s.rows[p][PK(v.DocumentID, v.ChunkIndex)] = v
	}
	return nil
}

func (s *InMemoryStore) DeleteByDocument(ctx context.Context, ownerID, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Partition(ownerID)
	for pk, v := range s.rows[p] {
		if v.DocumentID == documentID {
			delete(s.rows[p], pk)
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteByKeys(ctx context.Context, ownerID int64, documentID int64, chunkIndexes []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Partition(ownerID)
	for _, idx := range chunkIndexes {
		delete(s.rows[p], PK(documentID, idx))
	}
	return nil
}

func (s *InMemoryStore) Search(ctx context.Context, ownerIDs []int64, query []float32, topK int) ([]SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topK <= 0 {
		topK = 10
	}

	var candidates map[int64]Vector
	if len(ownerIDs) == 1 {
		candidates = s.rows[Partition(ownerIDs[0])]
	} else {
		candidates = make(map[int64]Vector)
		if len(ownerIDs) == 0 {
			for _, part := range s.rows {
				for pk, v := range part {
					candidates[pk] = v
				}
			}
		} else {
			for _, id := range ownerIDs {
				for pk, v := range s.rows[Partition(id)] {
					candidates[pk] = v
				}
			}
		}
	}

	hits := make([]SearchHit, 0, len(candidates))
	for _, v := range candidates {
		score := normalizedInnerProduct(query, v.Embedding)
		hits = append(hits, SearchHit{DocumentID: v.DocumentID, ChunkIndex: v.ChunkIndex, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func normalizedInnerProduct(a, b []float32) float64 {
	var ip float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ip += float64(a[i]) * float64(b[i])
	}
	return math.Max(0, math.Min(1, (ip+1)/2))
}
