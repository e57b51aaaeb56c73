package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kbstack/ragkb/internal/apperr"
)

// PgVectorStore implements Store on top of a pgvector-enabled Postgres
// table. pgvector has no native partition primitive (unlike Milvus, which
// the system this spec was distilled from used) so partitions are modeled
// as a text column plus a composite index.
type PgVectorStore struct {
	db        *pgxpool.Pool
	dimension int
}

func NewPgVectorStore(db *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{db: db}
}

func (s *PgVectorStore) EnsureCollection(ctx context.Context, dimension int) error {
	var existing int
	err := s.db.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = 'chunk_vectors'::regclass AND attname = 'embedding'`,
	).Scan(&existing)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "inspect chunk_vectors.embedding", err)
	}
	if existing != dimension {
		return apperr.New(apperr.DimensionMismatch,
			fmt.Sprintf("collection dimension %d does not match configured dimension %d", existing, dimension))
	}
	s.dimension = dimension
	return nil
}

func (s *PgVectorStore) EnsurePartition(ctx context.Context, ownerID int64) error {
	// Partitions are implicit: any row carrying the partition string belongs
	// to it. Nothing to provision beyond the shared table and its indexes,
	// which migrations already create.
	return nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, ownerID int64, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	partition := Partition(ownerID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "begin upsert tx", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range vectors {
		pk := PK(v.DocumentID, v.ChunkIndex)
		embedding := pgvector.NewVector(v.Embedding)
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_vectors (pk, partition, document_id, chunk_index, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (pk) DO UPDATE SET embedding = $5, partition = $2`,
			pk, partition, v.DocumentID, v.ChunkIndex, embedding,
		)
		if err != nil {
			return apperr.Wrap(apperr.VectorError, fmt.Sprintf("upsert vector pk=%d", pk), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.DBError, "commit upsert tx", err)
	}
	return nil
}

func (s *PgVectorStore) DeleteByDocument(ctx context.Context, ownerID, documentID int64) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM chunk_vectors WHERE partition = $1 AND document_id = $2",
		Partition(ownerID), documentID,
	)
	if err != nil {
		return apperr.Wrap(apperr.VectorError, "delete by document", err)
	}
	return nil
}

func (s *PgVectorStore) DeleteByKeys(ctx context.Context, ownerID int64, documentID int64, chunkIndexes []int) error {
	if len(chunkIndexes) == 0 {
		return nil
	}
	pks := make([]int64, len(chunkIndexes))
	for i, idx := range chunkIndexes {
		pks[i] = PK(documentID, idx)
	}
	_, err := s.db.Exec(ctx,
		"DELETE FROM chunk_vectors WHERE partition = $1 AND pk = ANY($2)",
		Partition(ownerID), pks,
	)
	if err != nil {
		return apperr.Wrap(apperr.VectorError, "delete by keys", err)
	}
	return nil
}

func (s *PgVectorStore) Search(ctx context.Context, ownerIDs []int64, query []float32, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		topK = 10
	}
	embedding := pgvector.NewVector(query)

	var rows interface {
		Next() bool
		Scan(dest ...any) error
		Close()
		Err() error
	}

	if len(ownerIDs) == 1 {
		r, err := s.db.Query(ctx,
			`SELECT document_id, chunk_index, 1 - (embedding <=> $1) / 2 AS score
			 FROM chunk_vectors
			 WHERE partition = $2
			 ORDER BY embedding <=> $1
			 LIMIT $3`,
			embedding, Partition(ownerIDs[0]), topK,
		)
		if err != nil {
			return nil, apperr.Wrap(apperr.VectorError, "similarity search", err)
		}
		rows = r
	} else if len(ownerIDs) == 0 {
		r, err := s.db.Query(ctx,
			`SELECT document_id, chunk_index, 1 - (embedding <=> $1) / 2 AS score
			 FROM chunk_vectors
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			embedding, topK,
		)
		if err != nil {
			return nil, apperr.Wrap(apperr.VectorError, "cross-partition search", err)
		}
		rows = r
	} else {
		partitions := make([]string, len(ownerIDs))
		for i, id := range ownerIDs {
			partitions[i] = Partition(id)
		}
		r, err := s.db.Query(ctx,
			`SELECT document_id, chunk_index, 1 - (embedding <=> $1) / 2 AS score
			 FROM chunk_vectors
			 WHERE partition = ANY($2)
			 ORDER BY embedding <=> $1
			 LIMIT $3`,
			embedding, partitions, topK,
		)
		if err != nil {
			return nil, apperr.Wrap(apperr.VectorError, "multi-partition search", err)
		}
		rows = r
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.DocumentID, &h.ChunkIndex, &h.Score); err != nil {
			return nil, apperr.Wrap(apperr.VectorError, "scan search hit", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.VectorError, "iterate search hits", err)
	}
	return hits, nil
}
