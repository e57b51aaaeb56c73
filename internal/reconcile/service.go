// Package reconcile implements the reconciliation service (C8) of
// spec.md §4.8: manual repair of vector-index drift from the canonical
// Postgres chunk store, invoked directly or from admin endpoints.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

type indexer interface {
	IndexDocument(ctx context.Context, documentID int64) error
}

type vectorDeleter interface {
	DeleteByDocument(ctx context.Context, ownerID, documentID int64) error
}

type Service struct {
	db      *pgxpool.Pool
	indexer indexer
	vectors vectorDeleter
}

func NewService(db *pgxpool.Pool, indexer indexer, vectors vectorDeleter) *Service {
	return &Service{db: db, indexer: indexer, vectors: vectors}
}

// RebuildVectors deletes a document's vectors and re-embeds and re-upserts
// every included chunk, per spec.md §4.8. This is the canonical recovery
// after a provider change, vector-store loss, or sync_vectors drift.
func (s *Service) RebuildVectors(ctx context.Context, documentID int64) error {
	ownerID, err := s.ownerOf(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocument(ctx, ownerID, documentID); err != nil {
		return err
	}
	return s.indexer.IndexDocument(ctx, documentID)
}

type ReindexFilter struct {
	OwnerID  *int64
	StatusIn []models.DocumentStatus
}

type ReindexOutcome struct {
	DocumentID int64  `json:"document_id"`
	Reason     string `json:"reason"`
}

type ReindexResult struct {
	OK     []int64          `json:"ok"`
	Failed []ReindexOutcome `json:"failed"`
}

// Reindex processes matching documents sequentially, logging per-document
// outcomes, per spec.md §4.8.
func (s *Service) Reindex(ctx context.Context, filter ReindexFilter) (ReindexResult, error) {
	ids, err := s.matchingDocuments(ctx, filter)
	if err != nil {
		return ReindexResult{}, err
	}

	var result ReindexResult
	for _, id := range ids {
		if err := s.RebuildVectors(ctx, id); err != nil {
			slog.Warn("reindex failed", "document_id", id, "error", err)
			result.Failed = append(result.Failed, ReindexOutcome{DocumentID: id, Reason: err.Error()})
			continue
		}
		slog.Info("reindexed", "document_id", id)
		result.OK = append(result.OK, id)
	}
	return result, nil
}

func (s *Service) ownerOf(ctx context.Context, documentID int64) (int64, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM documents WHERE id = $1`, documentID).Scan(&ownerID)
	if err != nil {
		return 0, apperr.Wrap(apperr.DBError, "get document owner", err)
	}
	return ownerID, nil
}

func (s *Service) matchingDocuments(ctx context.Context, f ReindexFilter) ([]int64, error) {
	query := `SELECT id FROM documents WHERE 1=1`
	args := []any{}
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		query += " AND owner_id = $1"
	}
	if len(f.StatusIn) > 0 {
		args = append(args, f.StatusIn)
		if len(args) == 1 {
			query += " AND status = ANY($1)"
		} else {
			query += " AND status = ANY($2)"
		}
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "list documents for reindex", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.DBError, "scan document id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
