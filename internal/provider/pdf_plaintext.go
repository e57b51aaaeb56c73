package provider

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kbstack/ragkb/internal/apperr"
)

// PlainTextPDF is the plain-text-extractor PdfToMarkdown variant: it walks
// pages with ledongthuc/pdf and concatenates GetPlainText output, with no
// attempt at structure. Grounded in the teacher's textextract.extractPDF.
type PlainTextPDF struct{}

func NewPlainTextPDF() *PlainTextPDF { return &PlainTextPDF{} }

func (PlainTextPDF) Name() string                    { return "plain-text-extractor" }
func (PlainTextPDF) Probe(ctx context.Context) error { return nil }

func (PlainTextPDF) Convert(ctx context.Context, pdfBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "open PDF", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String()), nil
}
