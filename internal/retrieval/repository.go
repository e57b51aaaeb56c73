package retrieval

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

// pgChunkReader is retrieval's narrow, read-mostly view over the documents
// and document_chunks tables that internal/document owns; it exists so
// indexing and querying don't need the full document.Service surface.
type pgChunkReader struct {
	db *pgxpool.Pool
}

func (r *pgChunkReader) listChunks(ctx context.Context, documentID int64) ([]models.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, char_count, included
		 FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list chunks", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.CharCount, &c.Included); err != nil {
			return nil, apperr.Wrap(apperr.DBError, "scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *pgChunkReader) getByID(ctx context.Context, id int64) (models.Document, error) {
	var d models.Document
	err := r.db.QueryRow(ctx, `SELECT id, owner_id FROM documents WHERE id = $1`, id).Scan(&d.ID, &d.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, apperr.New(apperr.NotFound, "document not found")
	}
	if err != nil {
		return models.Document{}, apperr.Wrap(apperr.DBError, "get document", err)
	}
	return d, nil
}

func (r *pgChunkReader) setIndexedAt(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET indexed_at = now() WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "set indexed_at", err)
	}
	return nil
}

func (r *pgChunkReader) getChunkContent(ctx context.Context, documentID int64, chunkIndex int) (string, error) {
	var content string
	err := r.db.QueryRow(ctx,
		`SELECT content FROM document_chunks WHERE document_id = $1 AND chunk_index = $2`, documentID, chunkIndex,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.New(apperr.NotFound, "chunk not found")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.DBError, "get chunk content", err)
	}
	return content, nil
}
