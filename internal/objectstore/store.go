// Package objectstore is the object store gateway (C2) of spec.md §4.2:
// tenant-scoped blob put/get/delete under a mandatory path convention.
package objectstore

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Store interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DocumentKey builds the path for an original upload:
// tenant_{owner_id}/documents/{uuid}/{safe_filename}.
func DocumentKey(ownerID int64, filename string) string {
	return "tenant_" + strconv.FormatInt(ownerID, 10) + "/documents/" + uuid.New().String() + "/" + SafeFilename(filename)
}

// MarkdownKey builds the path for a converted Markdown blob:
// tenant_{owner_id}/markdown/{document_id}.md.
func MarkdownKey(ownerID, documentID int64) string {
	return "tenant_" + strconv.FormatInt(ownerID, 10) + "/markdown/" + strconv.FormatInt(documentID, 10) + ".md"
}

// SafeFilename strips path separators and unsafe characters so a filename
// can never escape its key prefix, per spec.md §4.2.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimLeft(name, ".")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
