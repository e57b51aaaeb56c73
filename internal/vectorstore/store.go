package vectorstore

import (
	"context"
	"strconv"
)

// Vector is a chunk embedding keyed for idempotent upsert, per spec.md §4.3.
type Vector struct {
	DocumentID int64
	ChunkIndex int
	Embedding  []float32
}

// PK implements the deterministic injection from spec.md §6:
// pk = document_id * 10^6 + chunk_index.
func PK(documentID int64, chunkIndex int) int64 {
	return documentID*1_000_000 + int64(chunkIndex)
}

type SearchHit struct {
	DocumentID int64
	ChunkIndex int
	Score      float64 // cosine-like, normalized to [0,1], higher is more relevant
}

// Store is the vector index gateway (C3) of spec.md §4.3: collection
// lifecycle, per-tenant partition CRUD, vector upsert/delete/search.
type Store interface {
	// EnsureCollection is idempotent. It fails loudly on a dimension mismatch
	// with an already-provisioned collection rather than silently truncating
	// or padding vectors (spec.md §4.3, §7 DIMENSION_MISMATCH).
	EnsureCollection(ctx context.Context, dimension int) error

	// EnsurePartition is idempotent; partition names follow Partition(ownerID).
	EnsurePartition(ctx context.Context, ownerID int64) error

	// Upsert is delete-by-key then insert; the store need not support
	// in-place vector update (spec.md §4.3).
	Upsert(ctx context.Context, ownerID int64, vectors []Vector) error

	// DeleteByDocument removes every vector for documentID in ownerID's partition.
	DeleteByDocument(ctx context.Context, ownerID, documentID int64) error

	// DeleteByKeys removes specific (document_id, chunk_index) vectors.
	DeleteByKeys(ctx context.Context, ownerID int64, documentID int64, chunkIndexes []int) error

	// Search scores query against one or more owner partitions. An empty or
	// multi-element ownerIDs means an administrator cross-partition search
	// (spec.md §4.3/§4.7).
	Search(ctx context.Context, ownerIDs []int64, query []float32, topK int) ([]SearchHit, error)
}

// Partition names the per-tenant namespace within the collection, per
// spec.md §6 (`tenant_{owner_id}`, generalized from original_source's
// `user_{user_id}` Milvus partitions).
func Partition(ownerID int64) string {
	return "tenant_" + strconv.FormatInt(ownerID, 10)
}
