package document

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

// repository is the Postgres-backed store for documents, chunks and review
// actions. Per spec.md §4.5's "Postgres canonical / vectors derived"
// invariant, this is the single source of truth; the vector store only
// ever holds a derived projection of the chunks rows hold here.
type repository struct {
	db *pgxpool.Pool
}

func newRepository(db *pgxpool.Pool) *repository {
	return &repository{db: db}
}

const docColumns = `id, owner_id, filename, content_type, sha256, size_bytes, status, conversion_status,
	blob_key, markdown_key, conversion_error, reject_reason, preview_text,
	created_at, confirmed_at, reviewed_at, indexed_at, reviewer_id`

func scanDoc(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.ContentType, &d.SHA256, &d.SizeBytes, &d.Status, &d.ConversionStatus,
		&d.BlobKey, &d.MarkdownKey, &d.ConversionError, &d.RejectReason, &d.PreviewText,
		&d.CreatedAt, &d.ConfirmedAt, &d.ReviewedAt, &d.IndexedAt, &d.ReviewerID)
	return d, err
}

func (r *repository) insert(ctx context.Context, d models.Document) (models.Document, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO documents (owner_id, filename, content_type, sha256, size_bytes, status, conversion_status, blob_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+docColumns,
		d.OwnerID, d.Filename, d.ContentType, d.SHA256, d.SizeBytes, d.Status, d.ConversionStatus, d.BlobKey,
	)
	out, err := scanDoc(row)
	if err != nil {
		return models.Document{}, apperr.Wrap(apperr.DBError, "insert document", err)
	}
	return out, nil
}

func (r *repository) getByID(ctx context.Context, id int64) (models.Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+docColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDoc(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, apperr.New(apperr.NotFound, "document not found")
	}
	if err != nil {
		return models.Document{}, apperr.Wrap(apperr.DBError, "get document", err)
	}
	return d, nil
}

// getByIDForUpdate locks the document row so the single-writer-per-document
// rule (spec.md §5) holds across concurrent conversion starts and chunk edits.
func (r *repository) getByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Document, error) {
	row := tx.QueryRow(ctx, `SELECT `+docColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDoc(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, apperr.New(apperr.NotFound, "document not found")
	}
	if err != nil {
		return models.Document{}, apperr.Wrap(apperr.DBError, "get document for update", err)
	}
	return d, nil
}

type ListFilter struct {
	OwnerID   *int64
	StatusIn  []models.DocumentStatus
	Limit     int
	Offset    int
}

func (r *repository) list(ctx context.Context, f ListFilter) ([]models.Document, error) {
	query := `SELECT ` + docColumns + ` FROM documents WHERE 1=1`
	args := []any{}
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		query += " AND owner_id = $" + strconv.Itoa(len(args))
	}
	if len(f.StatusIn) > 0 {
		args = append(args, f.StatusIn)
		query += " AND status = ANY($" + strconv.Itoa(len(args)) + ")"
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list documents", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.DBError, "scan document", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *repository) update(ctx context.Context, d models.Document) error {
	_, err := r.db.Exec(ctx,
		`UPDATE documents SET filename=$2, content_type=$3, sha256=$4, size_bytes=$5, status=$6,
		 conversion_status=$7, blob_key=$8, markdown_key=$9, conversion_error=$10, reject_reason=$11,
		 preview_text=$12, confirmed_at=$13, reviewed_at=$14, indexed_at=$15, reviewer_id=$16
		 WHERE id=$1`,
		d.ID, d.Filename, d.ContentType, d.SHA256, d.SizeBytes, d.Status,
		d.ConversionStatus, d.BlobKey, d.MarkdownKey, d.ConversionError, d.RejectReason,
		d.PreviewText, d.ConfirmedAt, d.ReviewedAt, d.IndexedAt, d.ReviewerID,
	)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "update document", err)
	}
	return nil
}

func (r *repository) updateTx(ctx context.Context, tx pgx.Tx, d models.Document) error {
	_, err := tx.Exec(ctx,
		`UPDATE documents SET filename=$2, content_type=$3, sha256=$4, size_bytes=$5, status=$6,
		 conversion_status=$7, blob_key=$8, markdown_key=$9, conversion_error=$10, reject_reason=$11,
		 preview_text=$12, confirmed_at=$13, reviewed_at=$14, indexed_at=$15, reviewer_id=$16
		 WHERE id=$1`,
		d.ID, d.Filename, d.ContentType, d.SHA256, d.SizeBytes, d.Status,
		d.ConversionStatus, d.BlobKey, d.MarkdownKey, d.ConversionError, d.RejectReason,
		d.PreviewText, d.ConfirmedAt, d.ReviewedAt, d.IndexedAt, d.ReviewerID,
	)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "update document", err)
	}
	return nil
}

func (r *repository) delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "delete document", err)
	}
	return nil
}

func (r *repository) insertReview(ctx context.Context, a models.ReviewAction) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO review_actions (document_id, reviewer_id, action, reason) VALUES ($1, $2, $3, $4)`,
		a.DocumentID, a.ReviewerID, a.Action, a.Reason,
	)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "insert review action", err)
	}
	return nil
}

const chunkColumns = `id, document_id, chunk_index, content, char_count, included`

func scanChunk(row pgx.Row) (models.Chunk, error) {
	var c models.Chunk
	err := row.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.CharCount, &c.Included)
	return c, err
}

func (r *repository) listChunks(ctx context.Context, documentID int64) ([]models.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list chunks", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.DBError, "scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *repository) listChunksTx(ctx context.Context, tx pgx.Tx, documentID int64) ([]models.Chunk, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list chunks", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.DBError, "scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *repository) getChunk(ctx context.Context, documentID int64, chunkIndex int) (models.Chunk, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE document_id = $1 AND chunk_index = $2`, documentID, chunkIndex)
	c, err := scanChunk(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Chunk{}, apperr.New(apperr.NotFound, "chunk not found")
	}
	if err != nil {
		return models.Chunk{}, apperr.Wrap(apperr.DBError, "get chunk", err)
	}
	return c, nil
}

// replaceChunksTx deletes every chunk of a document and re-inserts the given
// set with dense 0..N-1 indexing, inside the caller's transaction. Used by
// both the conversion worker (fresh split) and chunk CRUD (renumbering).
func (r *repository) replaceChunksTx(ctx context.Context, tx pgx.Tx, documentID int64, chunks []models.Chunk) error {
	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return apperr.Wrap(apperr.DBError, "delete chunks", err)
	}
	for i, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (document_id, chunk_index, content, char_count, included)
			 VALUES ($1, $2, $3, $4, $5)`,
			documentID, i, c.Content, c.CharCount, c.Included,
		); err != nil {
			return apperr.Wrap(apperr.DBError, "insert chunk", err)
		}
	}
	return nil
}

func (r *repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "begin tx", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.DBError, "commit tx", err)
	}
	return nil
}
