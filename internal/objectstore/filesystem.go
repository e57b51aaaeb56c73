package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/kbstack/ragkb/internal/apperr"
)

// FilesystemStore is a local-disk backend, useful for self-hosted or
// single-node deployments where an HTTP object gateway is unwarranted.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return apperr.Wrap(apperr.StorageError, "create object store root", err)
	}
	return nil
}

func (s *FilesystemStore) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return apperr.Wrap(apperr.StorageError, "create object directory", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "create object file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return apperr.Wrap(apperr.StorageError, "write object", err)
	}
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.NotFound, "object not found", err)
		}
		return nil, apperr.Wrap(apperr.StorageError, "open object", err)
	}
	return f, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.StorageError, "delete object", err)
	}
	return nil
}
