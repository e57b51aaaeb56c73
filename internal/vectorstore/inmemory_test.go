package vectorstore

import (
	"context"
	"testing"

	"github.com/kbstack/ragkb/internal/apperr"
)

func TestInMemoryStore_EnsureCollection_DimensionMismatch(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.EnsureCollection(ctx, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.EnsureCollection(ctx, 8); err != nil {
		t.Fatalf("repeated EnsureCollection with the same dimension should be idempotent: %v", err)
	}
	err := s.EnsureCollection(ctx, 16)
	if !apperr.Is(err, apperr.DimensionMismatch) {
		t.Fatalf("expected DimensionMismatch, got %v", err)
	}
}

func TestInMemoryStore_UpsertAndSearch(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	s.EnsureCollection(ctx, 3)
	s.EnsurePartition(ctx, 1)

	s.Upsert(ctx, 1, []Vector{
		{DocumentID: 1, ChunkIndex: 0, Embedding: []float32{1, 0, 0}},
		{DocumentID: 1, ChunkIndex: 1, Embedding: []float32{0, 1, 0}},
		{DocumentID: 2, ChunkIndex: 0, Embedding: []float32{-1, 0, 0}},
	})

	hits, err := s.Search(ctx, []int64{1}, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].DocumentID != 1 || hits[0].ChunkIndex != 0 {
		t.Errorf("expected the parallel vector to score highest, got %+v", hits[0])
	}
	if hits[0].Score <= hits[len(hits)-1].Score {
		t.Error("hits should be sorted by descending score")
	}
}

func TestInMemoryStore_Search_TopKCap(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	s.EnsureCollection(ctx, 2)
	s.EnsurePartition(ctx, 1)
	s.Upsert(ctx, 1, []Vector{
		{DocumentID: 1, ChunkIndex: 0, Embedding: []float32{1, 0}},
		{DocumentID: 1, ChunkIndex: 1, Embedding: []float32{0, 1}},
		{DocumentID: 1, ChunkIndex: 2, Embedding: []float32{1, 1}},
	})
	hits, err := s.Search(ctx, []int64{1}, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected topK to cap results at 2, got %d", len(hits))
	}
}

func TestInMemoryStore_Search_AllPartitionsWhenOwnerIDsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	s.EnsureCollection(ctx, 2)
	s.EnsurePartition(ctx, 1)
	s.EnsurePartition(ctx, 2)
	s.Upsert(ctx, 1, []Vector{{DocumentID: 1, ChunkIndex: 0, Embedding: []float32{1, 0}}})
	s.Upsert(ctx, 2, []Vector{{DocumentID: 2, ChunkIndex: 0, Embedding: []float32{0, 1}}})

	hits, err := s.Search(ctx, nil, []float32{1, 1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("empty ownerIDs should search across all partitions, got %d hits", len(hits))
	}
}

func TestInMemoryStore_DeleteByDocumentAndKeys(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	s.EnsureCollection(ctx, 2)
	s.EnsurePartition(ctx, 1)
	s.Upsert(ctx, 1, []Vector{
		{DocumentID: 1, ChunkIndex: 0, Embedding: []float32{1, 0}},
		{DocumentID: 1, ChunkIndex: 1, Embedding: []float32{0, 1}},
		{DocumentID: 2, ChunkIndex: 0, Embedding: []float32{1, 1}},
	})

	if err := s.DeleteByKeys(ctx, 1, 1, []int{0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hits, _ := s.Search(ctx, []int64{1}, []float32{1, 0}, 10)
	for _, h := range hits {
		if h.DocumentID == 1 && h.ChunkIndex == 0 {
			t.Error("chunk (1,0) should have been deleted")
		}
	}

	if err := s.DeleteByDocument(ctx, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hits, _ = s.Search(ctx, []int64{1}, []float32{1, 0}, 10)
	for _, h := range hits {
		if h.DocumentID == 2 {
			t.Error("document 2 should have been fully deleted")
		}
	}
}
