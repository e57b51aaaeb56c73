// Package conversion implements the conversion worker (C5) of spec.md
// §4.5: an asynq task handler that turns one document's raw upload into
// Markdown plus chunks, with PDF fallback and OCR.
package conversion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/queue"
	"github.com/kbstack/ragkb/internal/textconv"
)

type Worker struct {
	docs         *document.Service
	providers    *provider.Registry
	minTextChars int
	ocrEnabled   bool
	split        document.SplitterConfig
}

func NewWorker(docs *document.Service, providers *provider.Registry, minTextChars int, ocrEnabled bool, split document.SplitterConfig) *Worker {
	return &Worker{
		docs:         docs,
		providers:    providers,
		minTextChars: minTextChars,
		ocrEnabled:   ocrEnabled,
		split:        split,
	}
}

// ProcessTask implements asynq.Handler, so it can be registered directly
// against a queue.HandlersRegistry without an extra adapter type.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentConvertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal conversion payload: %w", err)
	}
	return w.Process(ctx, payload.DocumentID)
}

// Process runs the full 8-step algorithm of spec.md §4.5 for one document.
// Converter failures after fallback+OCR are terminal and reported to the
// asynq server as skip-able (non-retryable); transient errors mark the
// document failed, so the redelivered job passes BeginConversion again, and
// are returned as-is so asynq's exponential backoff retries up to the
// queue's MaxRetry.
func (w *Worker) Process(ctx context.Context, documentID int64) error {
	doc, err := w.docs.BeginConversion(ctx, documentID)
	if err != nil {
		if apperr.Is(err, apperr.Precondition) || apperr.Is(err, apperr.NotFound) {
			slog.Info("conversion job skipped", "document_id", documentID, "reason", err)
			return nil
		}
		return err
	}

	markdown, convErr := w.convert(ctx, doc)
	if convErr != nil {
		if isTransient(convErr) {
			w.docs.FailConversion(ctx, documentID, convErr.Error())
			return convErr
		}
		if failErr := w.docs.FailConversion(ctx, documentID, convErr.Error()); failErr != nil {
			return failErr
		}
		return fmt.Errorf("%w: %s", asynq.SkipRetry, convErr)
	}

	markdownKey, err := w.docs.PutMarkdown(ctx, doc, markdown)
	if err != nil {
		if isTransient(err) {
			w.docs.FailConversion(ctx, documentID, err.Error())
			return err
		}
		w.docs.FailConversion(ctx, documentID, err.Error())
		return fmt.Errorf("%w: %s", asynq.SkipRetry, err)
	}

	chunks := document.SplitMarkdown(markdown, w.split)
	if err := w.docs.CompleteConversion(ctx, documentID, markdownKey, previewOf(chunks), chunks); err != nil {
		if isTransient(err) {
			w.docs.FailConversion(ctx, documentID, err.Error())
			return err
		}
		w.docs.FailConversion(ctx, documentID, err.Error())
		return fmt.Errorf("%w: %s", asynq.SkipRetry, err)
	}

	slog.Info("document converted", "document_id", documentID, "chunks", len(chunks))
	return nil
}

// convert dispatches by content type, per spec.md §4.5 step 4.
func (w *Worker) convert(ctx context.Context, doc models.Document) (string, error) {
	blob, err := w.docs.GetBlob(ctx, doc)
	if err != nil {
		return "", err
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return "", apperr.Wrap(apperr.StorageError, "read blob", err)
	}

	if isPDF(doc.ContentType, doc.Filename) {
		return w.convertPDF(ctx, data)
	}
	return convertNonPDF(doc.ContentType, doc.Filename, data)
}

func (w *Worker) convertPDF(ctx context.Context, data []byte) (string, error) {
	text, err := w.providers.ConvertPDF(ctx, data)
	if err != nil {
		text = ""
	}
	if len(strings.TrimSpace(text)) < w.minTextChars && w.ocrEnabled {
		ocrText, ocrErr := w.providers.OCR.Extract(ctx, data)
		if ocrErr == nil {
			text = ocrText
		} else if text == "" {
			return "", ocrErr
		}
	}
	if err != nil && text == "" {
		return "", err
	}
	return text, nil
}

func convertNonPDF(contentType, filename string, data []byte) (string, error) {
	switch contentFormat(contentType, filename) {
	case "json":
		return textconv.JSONToMarkdown(data)
	case "csv":
		return textconv.CSVToMarkdown(data)
	case "xlsx":
		return textconv.XLSXToMarkdown(data)
	case "docx":
		return textconv.DOCXToMarkdown(data)
	default:
		return textconv.PlainText(data)
	}
}

func contentFormat(contentType, filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(contentType, "json") || strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.Contains(contentType, "csv") || strings.HasSuffix(lower, ".csv"):
		return "csv"
	case strings.Contains(contentType, "spreadsheetml") || strings.HasSuffix(lower, ".xlsx"):
		return "xlsx"
	case strings.Contains(contentType, "wordprocessingml") || strings.HasSuffix(lower, ".docx"):
		return "docx"
	default:
		return "text"
	}
}

func isPDF(contentType, filename string) bool {
	return contentType == "application/pdf" || strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

func isTransient(err error) bool {
	return apperr.Is(err, apperr.StorageError) || apperr.Is(err, apperr.DBError)
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
