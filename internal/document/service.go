// Package document implements the document lifecycle service (C6) of
// spec.md §4.6: upload, review state machine, chunk CRUD and cascading
// delete, over a Postgres-backed repository, an object store (C2) for
// blobs, a queue client for conversion jobs, and a vector store (C3) for
// sync_vectors propagation on chunk edits.
package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/objectstore"
	"github.com/kbstack/ragkb/internal/splitter"
	"github.com/kbstack/ragkb/internal/vectorstore"
)

// Indexer is the retrieval service's indexing entrypoint (C7), invoked by
// approve(). Declared here so this package does not import
// internal/retrieval; *retrieval.Service satisfies it.
type Indexer interface {
	IndexDocument(ctx context.Context, documentID int64) error
}

// Enqueuer schedules a conversion job; satisfied by *queue.Client.
type Enqueuer interface {
	EnqueueConversion(ctx context.Context, documentID int64) error
}

type SplitterConfig struct {
	Strategy       string
	ChunkSize      int
	OverlapPercent int
	Delimiters     []string
}

type Service struct {
	repo    *repository
	store   objectstore.Store
	vectors vectorstore.Store
	queue   Enqueuer
	indexer Indexer
	split   SplitterConfig
}

func NewService(db *pgxpool.Pool, store objectstore.Store, vectors vectorstore.Store, queue Enqueuer, indexer Indexer, split SplitterConfig) *Service {
	return &Service{
		repo:    newRepository(db),
		store:   store,
		vectors: vectors,
		queue:   queue,
		indexer: indexer,
		split:   split,
	}
}

// Upload persists metadata (status=uploaded, conversion_status=pending),
// stores the blob, and enqueues a conversion job, per spec.md §4.6.
func (s *Service) Upload(ctx context.Context, ownerID int64, data []byte, filename, contentType string) (models.Document, error) {
	sum := sha256.Sum256(data)
	blobKey := objectstore.DocumentKey(ownerID, filename)

	if err := s.store.Put(ctx, blobKey, bytesReader(data), contentType); err != nil {
		return models.Document{}, err
	}

	doc, err := s.repo.insert(ctx, models.Document{
		OwnerID:          ownerID,
		Filename:         filename,
		ContentType:      contentType,
		SHA256:           hex.EncodeToString(sum[:]),
		SizeBytes:        int64(len(data)),
		Status:           models.DocStatusUploaded,
		ConversionStatus: models.ConversionPending,
		BlobKey:          blobKey,
	})
	if err != nil {
		return models.Document{}, err
	}

	if err := s.queue.EnqueueConversion(ctx, doc.ID); err != nil {
		return models.Document{}, apperr.Wrap(apperr.DBError, "enqueue conversion", err)
	}
	return doc, nil
}

func (s *Service) GetStatus(ctx context.Context, ownerID int64, id int64, isAdmin bool) (models.Document, error) {
	doc, err := s.repo.getByID(ctx, id)
	if err != nil {
		return models.Document{}, err
	}
	if !isAdmin && doc.OwnerID != ownerID {
		return models.Document{}, apperr.New(apperr.Forbidden, "not the owner of this document")
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, ownerID int64, isAdmin bool, statusIn []models.DocumentStatus, limit, offset int) ([]models.Document, error) {
	f := ListFilter{StatusIn: statusIn, Limit: limit, Offset: offset}
	if !isAdmin {
		f.OwnerID = &ownerID
	}
	return s.repo.list(ctx, f)
}

func (s *Service) DownloadMarkdown(ctx context.Context, ownerID int64, id int64, isAdmin bool) (io.ReadCloser, error) {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return nil, err
	}
	if doc.MarkdownKey == "" {
		return nil, apperr.New(apperr.NotFound, "document has no markdown yet")
	}
	return s.store.Get(ctx, doc.MarkdownKey)
}

// UploadMarkdown replaces the authoritative Markdown with a user-supplied
// version, re-runs the splitter and resets chunks, per spec.md §4.6.
// Permitted when conversion_status is ready or failed.
func (s *Service) UploadMarkdown(ctx context.Context, ownerID int64, id int64, isAdmin bool, markdown []byte) (models.Document, error) {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return models.Document{}, err
	}
	if doc.ConversionStatus != models.ConversionReady && doc.ConversionStatus != models.ConversionFailed {
		return models.Document{}, apperr.New(apperr.Precondition, "markdown not replaceable while conversion is in progress")
	}

	markdownKey := doc.MarkdownKey
	if markdownKey == "" {
		markdownKey = objectstore.MarkdownKey(doc.OwnerID, doc.ID)
	}
	if err := s.store.Put(ctx, markdownKey, bytesReader(markdown), "text/markdown"); err != nil {
		return models.Document{}, err
	}

	chunks := SplitMarkdown(string(markdown), s.split)

	err = s.repo.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.replaceChunksTx(ctx, tx, doc.ID, chunks); err != nil {
			return err
		}
		doc.MarkdownKey = markdownKey
		doc.ConversionStatus = models.ConversionReady
		doc.ConversionError = ""
		doc.Status = models.DocStatusConfirmed
		doc.PreviewText = previewOf(chunks)
		now := time.Now()
		doc.ConfirmedAt = &now
		return s.repo.updateTx(ctx, tx, doc)
	})
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// RetryConversion re-enqueues a job, only when conversion_status is failed
// or pending (spec.md §4.6).
func (s *Service) RetryConversion(ctx context.Context, ownerID int64, id int64, isAdmin bool) error {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return err
	}
	if doc.ConversionStatus != models.ConversionFailed && doc.ConversionStatus != models.ConversionPending {
		return apperr.New(apperr.Precondition, "conversion is not in a retryable state")
	}
	return s.queue.EnqueueConversion(ctx, doc.ID)
}

// Confirm requires status=uploaded and conversion_status=ready.
func (s *Service) Confirm(ctx context.Context, ownerID int64, id int64, isAdmin bool) (models.Document, error) {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status != models.DocStatusUploaded {
		return models.Document{}, apperr.New(apperr.Precondition, "document must be uploaded to confirm")
	}
	if doc.ConversionStatus != models.ConversionReady {
		return models.Document{}, apperr.New(apperr.Precondition, "conversion is not ready")
	}
	doc.Status = models.DocStatusConfirmed
	now := time.Now()
	doc.ConfirmedAt = &now
	if err := s.repo.update(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (s *Service) ListChunks(ctx context.Context, ownerID int64, id int64, isAdmin bool) ([]models.Chunk, error) {
	if _, err := s.GetStatus(ctx, ownerID, id, isAdmin); err != nil {
		return nil, err
	}
	return s.repo.listChunks(ctx, id)
}

// CreateChunk appends a chunk and renumbers chunk_index for density.
func (s *Service) CreateChunk(ctx context.Context, ownerID int64, id int64, isAdmin bool, content string, syncVectors bool) ([]models.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.New(apperr.Validation, "chunk content must not be empty")
	}
	doc, err := s.requireNotConverting(ctx, ownerID, id, isAdmin)
	if err != nil {
		return nil, err
	}
	var out []models.Chunk
	err = s.repo.withTx(ctx, func(tx pgx.Tx) error {
		existing, err := s.repo.listChunksTx(ctx, tx, id)
		if err != nil {
			return err
		}
		existing = append(existing, models.Chunk{Content: content, CharCount: len(content), Included: true})
		if err := s.repo.replaceChunksTx(ctx, tx, id, existing); err != nil {
			return err
		}
		out, err = s.repo.listChunksTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if syncVectors && doc.Status == models.DocStatusIndexed {
		s.syncAll(ctx, doc.OwnerID, id, out)
	}
	return out, nil
}

type UpdateChunkRequest struct {
	Content  *string
	Included *bool
}

// UpdateChunk edits one chunk by index, optionally syncing the vector store
// when the document is indexed: toggling included=false removes the
// vector, toggling to true reinserts it, per spec.md §4.6.
func (s *Service) UpdateChunk(ctx context.Context, ownerID int64, id int64, isAdmin bool, chunkIndex int, req UpdateChunkRequest, syncVectors bool) (models.Chunk, error) {
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return models.Chunk{}, apperr.New(apperr.Validation, "chunk content must not be empty")
	}
	doc, err := s.requireNotConverting(ctx, ownerID, id, isAdmin)
	if err != nil {
		return models.Chunk{}, err
	}

	var updated models.Chunk
	var wasIncluded bool
	err = s.repo.withTx(ctx, func(tx pgx.Tx) error {
		chunks, err := s.repo.listChunksTx(ctx, tx, id)
		if err != nil {
			return err
		}
		idx := -1
		for i, c := range chunks {
			if c.ChunkIndex == chunkIndex {
				idx = i
				wasIncluded = c.Included
				break
			}
		}
		if idx == -1 {
			return apperr.New(apperr.NotFound, "chunk not found")
		}
		if req.Content != nil {
			chunks[idx].Content = *req.Content
			chunks[idx].CharCount = len(*req.Content)
		}
		if req.Included != nil {
			chunks[idx].Included = *req.Included
		}
		if err := s.repo.replaceChunksTx(ctx, tx, id, chunks); err != nil {
			return err
		}
		fresh, err := s.repo.listChunksTx(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = fresh[idx]
		return nil
	})
	if err != nil {
		return models.Chunk{}, err
	}

	if syncVectors && doc.Status == models.DocStatusIndexed {
		switch {
		case wasIncluded && !updated.Included:
			s.vectors.DeleteByKeys(ctx, doc.OwnerID, doc.ID, []int{chunkIndex})
		case updated.Included:
			s.indexer.IndexDocument(ctx, doc.ID)
		}
	}
	return updated, nil
}

// DeleteChunk removes a chunk and renumbers the remaining chunks.
func (s *Service) DeleteChunk(ctx context.Context, ownerID int64, id int64, isAdmin bool, chunkIndex int, syncVectors bool) ([]models.Chunk, error) {
	doc, err := s.requireNotConverting(ctx, ownerID, id, isAdmin)
	if err != nil {
		return nil, err
	}

	var out []models.Chunk
	err = s.repo.withTx(ctx, func(tx pgx.Tx) error {
		chunks, err := s.repo.listChunksTx(ctx, tx, id)
		if err != nil {
			return err
		}
		kept := chunks[:0]
		for _, c := range chunks {
			if c.ChunkIndex != chunkIndex {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(chunks) {
			return apperr.New(apperr.NotFound, "chunk not found")
		}
		if err := s.repo.replaceChunksTx(ctx, tx, id, kept); err != nil {
			return err
		}
		out, err = s.repo.listChunksTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if syncVectors && doc.Status == models.DocStatusIndexed {
		s.syncAll(ctx, doc.OwnerID, id, out)
	}
	return out, nil
}

// Approve requires status ∈ {uploaded, confirmed} and conversion_status=ready.
// Invokes index_document; on success sets status=indexed, on failure leaves
// status=approved for retry, per spec.md §4.6.
func (s *Service) Approve(ctx context.Context, reviewerID int64, id int64) (models.Document, error) {
	doc, err := s.repo.getByID(ctx, id)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status != models.DocStatusUploaded && doc.Status != models.DocStatusConfirmed {
		return models.Document{}, apperr.New(apperr.Precondition, "document must be uploaded or confirmed to approve")
	}
	if doc.ConversionStatus != models.ConversionReady {
		return models.Document{}, apperr.New(apperr.Precondition, "conversion is not ready")
	}

	if err := s.repo.insertReview(ctx, models.ReviewAction{DocumentID: id, ReviewerID: reviewerID, Action: models.ReviewApprove}); err != nil {
		return models.Document{}, err
	}

	doc.Status = models.DocStatusApproved
	now := time.Now()
	doc.ReviewedAt = &now
	doc.ReviewerID = &reviewerID
	if err := s.repo.update(ctx, doc); err != nil {
		return models.Document{}, err
	}

	if err := s.indexer.IndexDocument(ctx, id); err != nil {
		return doc, err
	}

	doc.Status = models.DocStatusIndexed
	if err := s.repo.update(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Reject requires status ∈ {uploaded, confirmed}.
func (s *Service) Reject(ctx context.Context, reviewerID int64, id int64, reason string) (models.Document, error) {
	if reason == "" {
		return models.Document{}, apperr.New(apperr.Validation, "reject reason is required")
	}
	doc, err := s.repo.getByID(ctx, id)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status != models.DocStatusUploaded && doc.Status != models.DocStatusConfirmed {
		return models.Document{}, apperr.New(apperr.Precondition, "document must be uploaded or confirmed to reject")
	}

	if err := s.repo.insertReview(ctx, models.ReviewAction{DocumentID: id, ReviewerID: reviewerID, Action: models.ReviewReject, Reason: reason}); err != nil {
		return models.Document{}, err
	}

	doc.Status = models.DocStatusRejected
	doc.RejectReason = reason
	now := time.Now()
	doc.ReviewedAt = &now
	doc.ReviewerID = &reviewerID
	if err := s.repo.update(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Resubmit moves a rejected document back to confirmed, preserving its
// Markdown and chunks.
func (s *Service) Resubmit(ctx context.Context, ownerID int64, id int64, isAdmin bool) (models.Document, error) {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status != models.DocStatusRejected {
		return models.Document{}, apperr.New(apperr.Precondition, "only rejected documents can be resubmitted")
	}
	doc.Status = models.DocStatusConfirmed
	doc.RejectReason = ""
	if err := s.repo.update(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Delete is permitted from any state and cascades to chunks (DB FK),
// vectors, original blob and Markdown blob. Downstream artifact deletion
// failures are logged but never block the DB delete; the reconciliation
// service (C8) is the backstop, per spec.md §4.6.
func (s *Service) Delete(ctx context.Context, ownerID int64, id int64, isAdmin bool) error {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return err
	}

	if doc.BlobKey != "" {
		if err := s.store.Delete(ctx, doc.BlobKey); err != nil {
			slog.Warn("delete original blob failed", "document_id", doc.ID, "error", err)
		}
	}
	if doc.MarkdownKey != "" {
		if err := s.store.Delete(ctx, doc.MarkdownKey); err != nil {
			slog.Warn("delete markdown blob failed", "document_id", doc.ID, "error", err)
		}
	}
	if err := s.vectors.DeleteByDocument(ctx, doc.OwnerID, doc.ID); err != nil {
		slog.Warn("delete document vectors failed", "document_id", doc.ID, "error", err)
	}

	return s.repo.delete(ctx, id)
}

func (s *Service) requireNotConverting(ctx context.Context, ownerID int64, id int64, isAdmin bool) (models.Document, error) {
	doc, err := s.GetStatus(ctx, ownerID, id, isAdmin)
	if err != nil {
		return models.Document{}, err
	}
	if doc.ConversionStatus == models.ConversionProcessing {
		return models.Document{}, apperr.New(apperr.Precondition, "document is currently converting")
	}
	return doc, nil
}

func (s *Service) syncAll(ctx context.Context, ownerID, documentID int64, chunks []models.Chunk) {
	s.vectors.DeleteByDocument(ctx, ownerID, documentID)
	s.indexer.IndexDocument(ctx, documentID)
}

// BeginConversion loads a document and, if it's eligible, locks the row and
// sets conversion_status=processing, enforcing the single-writer-per-document
// rule of spec.md §5: a conversion job only starts if conversion_status is
// pending or failed and the document hasn't been deleted out from under it.
func (s *Service) BeginConversion(ctx context.Context, id int64) (models.Document, error) {
	var doc models.Document
	err := s.repo.withTx(ctx, func(tx pgx.Tx) error {
		d, err := s.repo.getByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.ConversionStatus != models.ConversionPending && d.ConversionStatus != models.ConversionFailed {
			return apperr.New(apperr.Precondition, "document is not eligible for conversion")
		}
		switch d.Status {
		case models.DocStatusUploaded, models.DocStatusConfirmed, models.DocStatusApproved:
		default:
			return apperr.New(apperr.Precondition, "document status is not eligible for conversion")
		}
		d.ConversionStatus = models.ConversionProcessing
		d.ConversionError = ""
		if err := s.repo.updateTx(ctx, tx, d); err != nil {
			return err
		}
		doc = d
		return nil
	})
	return doc, err
}

// GetBlob fetches the original upload bytes for conversion.
func (s *Service) GetBlob(ctx context.Context, doc models.Document) (io.ReadCloser, error) {
	return s.store.Get(ctx, doc.BlobKey)
}

// PutMarkdown writes the converted Markdown blob, returning its key.
func (s *Service) PutMarkdown(ctx context.Context, doc models.Document, markdown string) (string, error) {
	key := objectstore.MarkdownKey(doc.OwnerID, doc.ID)
	if err := s.store.Put(ctx, key, bytesReader([]byte(markdown)), "text/markdown"); err != nil {
		return "", err
	}
	return key, nil
}

// CompleteConversion replaces the document's chunks transactionally, resets
// included=true on every chunk, and sets conversion_status=ready, per the
// last two steps of spec.md §4.5's conversion algorithm.
func (s *Service) CompleteConversion(ctx context.Context, id int64, markdownKey, previewText string, chunks []models.Chunk) error {
	for i := range chunks {
		chunks[i].Included = true
	}
	return s.repo.withTx(ctx, func(tx pgx.Tx) error {
		d, err := s.repo.getByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repo.replaceChunksTx(ctx, tx, id, chunks); err != nil {
			return err
		}
		d.ConversionStatus = models.ConversionReady
		d.ConversionError = ""
		d.MarkdownKey = markdownKey
		d.PreviewText = previewText
		return s.repo.updateTx(ctx, tx, d)
	})
}

// FailConversion records a terminal conversion failure. Per spec.md §7 it
// never touches status: only conversion_status and conversion_error change.
func (s *Service) FailConversion(ctx context.Context, id int64, reason string) error {
	return s.repo.withTx(ctx, func(tx pgx.Tx) error {
		d, err := s.repo.getByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		d.ConversionStatus = models.ConversionFailed
		d.ConversionError = reason
		return s.repo.updateTx(ctx, tx, d)
	})
}

func previewOf(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	text := chunks[0].Content
	if len(text) > 280 {
		text = text[:280]
	}
	return text
}

// SplitMarkdown runs the configured splitter strategy (C4) over Markdown
// text and marks every resulting chunk included by default.
func SplitMarkdown(markdown string, cfg SplitterConfig) []models.Chunk {
	strategy := splitter.ForName(cfg.Strategy)
	raw := strategy.Split(markdown, splitter.Options{
		ChunkSize:      cfg.ChunkSize,
		OverlapPercent: cfg.OverlapPercent,
		Delimiters:     cfg.Delimiters,
	})
	chunks := make([]models.Chunk, len(raw))
	for i, c := range raw {
		chunks[i] = models.Chunk{
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			CharCount:  c.CharCount,
			Included:   true,
		}
	}
	return chunks
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
