package provider

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kbstack/ragkb/internal/apperr"
)

// LayoutAwarePDF is the layout-aware-engine PdfToMarkdown variant: it reads
// per-row font sizes via ledongthuc/pdf's row API and promotes rows whose
// font size is well above the page median to Markdown headings, emitting
// paragraph breaks on large vertical gaps. It is tried first; on failure
// conversion falls back to PlainTextPDF, per spec.md §4.1.
type LayoutAwarePDF struct{}

func NewLayoutAwarePDF() *LayoutAwarePDF { return &LayoutAwarePDF{} }

func (LayoutAwarePDF) Name() string                    { return "layout-aware-engine" }
func (LayoutAwarePDF) Probe(ctx context.Context) error { return nil }

func (LayoutAwarePDF) Convert(ctx context.Context, pdfBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "open PDF", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", apperr.Wrap(apperr.ConversionFailed, "read page rows", err)
		}
		if len(rows) == 0 {
			continue
		}

		median := medianFontSize(rows)
		var lastY int64
		first := true

		for _, row := range rows {
			line := rowText(row)
			if strings.TrimSpace(line) == "" {
				continue
			}
			size := rowFontSize(row)

			if !first && lastY-row.Position > 18 {
				out.WriteString("\n")
			}
			first = false
			lastY = row.Position

			if median > 0 && size >= median*1.3 {
				out.WriteString("## ")
			}
			out.WriteString(strings.TrimSpace(line))
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}

	result := strings.TrimSpace(out.String())
	if result == "" {
		return "", apperr.New(apperr.ConversionFailed, "layout-aware engine produced no text")
	}
	return result, nil
}

func rowText(row *pdf.Row) string {
	var b strings.Builder
	for _, t := range row.Content {
		b.WriteString(t.S)
	}
	return b.String()
}

func rowFontSize(row *pdf.Row) float64 {
	if len(row.Content) == 0 {
		return 0
	}
	return row.Content[0].FontSize
}

func medianFontSize(rows pdf.Rows) float64 {
	sizes := make([]float64, 0, len(rows))
	for _, r := range rows {
		if s := rowFontSize(r); s > 0 {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}
