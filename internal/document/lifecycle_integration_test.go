//go:build integration

package document

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbstack/ragkb/internal/config"
	"github.com/kbstack/ragkb/internal/database"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/objectstore"
	"github.com/kbstack/ragkb/internal/vectorstore"
)

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueConversion(ctx context.Context, documentID int64) error { return nil }

type noopIndexer struct{}

func (noopIndexer) IndexDocument(ctx context.Context, documentID int64) error { return nil }

// TestLifecycle_UploadConfirmApprove exercises the document state machine
// of spec.md §4.6 end to end against a real database. Run with
// -tags integration against a Postgres instance with migrations applied.
func TestLifecycle_UploadConfirmApprove(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	cfg := config.DatabaseConfig{URL: dbURL, MaxConns: 4, MinConns: 1}
	pool, err := database.NewPool(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	dir := t.TempDir()
	store := objectstore.NewFilesystemStore(dir)
	vectors := vectorstore.NewInMemoryStore()

	split := SplitterConfig{Strategy: "recursive-separator", ChunkSize: 200, OverlapPercent: 10}
	svc := NewService(pool, store, vectors, noopEnqueuer{}, noopIndexer{}, split)

	const ownerID = int64(1)
	doc, err := svc.Upload(ctx, ownerID, []byte("hello world"), "greeting.txt", "text/plain")
	require.NoError(t, err)
	require.Equal(t, models.DocStatusUploaded, doc.Status)

	err = svc.CompleteConversion(ctx, doc.ID, "tenant_1/markdown/1.md", "hello world", []models.Chunk{
		{ChunkIndex: 0, Content: "hello world", CharCount: 11, Included: true},
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, ownerID, doc.ID, false)
	require.NoError(t, err)
	require.Equal(t, models.DocStatusConfirmed, confirmed.Status)

	approved, err := svc.Approve(ctx, ownerID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, models.DocStatusIndexed, approved.Status)

	require.NoError(t, svc.Delete(ctx, ownerID, doc.ID, false))
}
