package provider

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/kbstack/ragkb/internal/apperr"
)

// TesseractOCR shells out to a local tesseract binary, grounded in the
// teacher's OCRService. Invoked by the conversion worker only when a
// PdfToMarkdown result falls below min_text_chars (spec.md §4.1).
//
// Tesseract operates on images, not PDF bytes directly; the conversion
// worker is expected to rasterize pages before calling Extract when a true
// scanned-PDF pipeline is wired up. Absent a rasterizer in this deployment,
// Extract treats pdfBytes as raw image bytes written to a temp file, which
// is the mode tesseract's own CLI supports without extra dependencies.
type TesseractOCR struct {
	bin string
}

func NewTesseractOCR(bin string) *TesseractOCR {
	if bin == "" {
		bin = "tesseract"
	}
	return &TesseractOCR{bin: bin}
}

func (o *TesseractOCR) Name() string { return "tesseract" }

func (o *TesseractOCR) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(o.bin); err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "tesseract binary not found", err)
	}
	cmd := exec.CommandContext(ctx, o.bin, "--version")
	if err := cmd.Run(); err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, "tesseract --version failed", err)
	}
	return nil
}

func (o *TesseractOCR) Extract(ctx context.Context, imageBytes []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return "", apperr.Wrap(apperr.StorageError, "create OCR temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(imageBytes); err != nil {
		tmp.Close()
		return "", apperr.Wrap(apperr.StorageError, "write OCR temp file", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, o.bin, tmp.Name(), "stdout", "-l", "eng")
	output, err := cmd.Output()
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "tesseract OCR failed", err)
	}
	return strings.TrimSpace(string(output)), nil
}
