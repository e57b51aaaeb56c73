package conversion

import (
	"errors"
	"testing"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

func TestContentFormat(t *testing.T) {
	cases := []struct {
		contentType, filename, want string
	}{
		{"application/json", "data.bin", "json"},
		{"application/octet-stream", "data.json", "json"},
		{"text/csv", "rows.bin", "csv"},
		{"application/octet-stream", "rows.CSV", "csv"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "x.bin", "xlsx"},
		{"application/octet-stream", "sheet.xlsx", "xlsx"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "x.bin", "docx"},
		{"application/octet-stream", "doc.DOCX", "docx"},
		{"text/plain", "notes.txt", "text"},
	}
	for _, c := range cases {
		if got := contentFormat(c.contentType, c.filename); got != c.want {
			t.Errorf("contentFormat(%q, %q) = %q, want %q", c.contentType, c.filename, got, c.want)
		}
	}
}

func TestIsPDF(t *testing.T) {
	if !isPDF("application/pdf", "whatever.bin") {
		t.Error("application/pdf content type should be detected")
	}
	if !isPDF("application/octet-stream", "report.PDF") {
		t.Error(".PDF extension should be detected case-insensitively")
	}
	if isPDF("text/plain", "notes.txt") {
		t.Error("plain text should not be detected as pdf")
	}
}

func TestIsTransient(t *testing.T) {
	if !isTransient(apperr.New(apperr.StorageError, "put failed")) {
		t.Error("StorageError should be transient")
	}
	if !isTransient(apperr.New(apperr.DBError, "write failed")) {
		t.Error("DBError should be transient")
	}
	if isTransient(apperr.New(apperr.ConversionFailed, "bad pdf")) {
		t.Error("ConversionFailed should not be transient")
	}
	if isTransient(errors.New("plain error")) {
		t.Error("an unclassified error should not be treated as transient")
	}
}

func TestPreviewOf(t *testing.T) {
	if got := previewOf(nil); got != "" {
		t.Errorf("expected empty preview for no chunks, got %q", got)
	}
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	got := previewOf([]models.Chunk{{Content: string(long)}})
	if len(got) != 280 {
		t.Errorf("expected 280-char cap, got %d", len(got))
	}
}

func TestConvertNonPDF_DispatchesByFormat(t *testing.T) {
	md, err := convertNonPDF("text/plain", "notes.txt", []byte("  hello  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != "hello" {
		t.Errorf("plain text should pass through trimmed, got %q", md)
	}

	md, err = convertNonPDF("application/json", "data.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md == "" {
		t.Error("expected a non-empty markdown fenced block for JSON")
	}
}
