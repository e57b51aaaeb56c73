package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbstack/ragkb/internal/apperr"
)

// HTTPObjectStore is an HTTP-gateway backend (S3-compatible object gateway,
// MinIO, Supabase Storage, ...), generalized from the teacher's
// SupabaseStorage adapter into a bearer-token object API independent of any
// one vendor.
type HTTPObjectStore struct {
	baseURL    string
	bucket     string
	token      string
	httpClient *http.Client
}

func NewHTTPObjectStore(baseURL, bucket, token string) *HTTPObjectStore {
	return &HTTPObjectStore{
		baseURL:    baseURL,
		bucket:     bucket,
		token:      token,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *HTTPObjectStore) EnsureBucket(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/bucket/"+s.bucket, nil)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "build ensure-bucket request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "ensure bucket", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(resp.Body)
		return apperr.New(apperr.StorageError, fmt.Sprintf("ensure bucket failed (%d): %s", resp.StatusCode, body))
	}
	return nil
}

func (s *HTTPObjectStore) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, data)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "build upload request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "upload object", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return apperr.New(apperr.StorageError, fmt.Sprintf("upload failed (%d): %s", resp.StatusCode, body))
	}
	return nil
}

func (s *HTTPObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "build download request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "download object", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, apperr.New(apperr.NotFound, "object not found: "+key)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apperr.New(apperr.StorageError, fmt.Sprintf("download failed (%d): %s", resp.StatusCode, body))
	}

	return resp.Body, nil
}

func (s *HTTPObjectStore) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "build delete request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.StorageError, "delete object", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return apperr.New(apperr.StorageError, fmt.Sprintf("delete failed (%d): %s", resp.StatusCode, body))
	}
	return nil
}
