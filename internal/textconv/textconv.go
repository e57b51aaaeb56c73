// Package textconv renders non-PDF document formats to Markdown for the
// conversion worker (C5), per spec.md §4.5's "synchronous in-process
// conversion to Markdown" step for plain text / Markdown / JSON / CSV /
// XLSX / DOCX. Grounded in original_source's document_parser.py dispatch,
// upgraded from tab-separated text to genuine Markdown tables per
// spec.md §6's bit-exact table rendering requirement.
package textconv

import (
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/kbstack/ragkb/internal/apperr"
)

// PlainText passes text-like content (txt, md) through with leading and
// trailing whitespace trimmed.
func PlainText(data []byte) (string, error) {
	return strings.TrimSpace(string(data)), nil
}

// JSONToMarkdown pretty-prints JSON into a fenced code block, grounded in
// original_source's document_parser.py JSON handling.
func JSONToMarkdown(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "parse JSON", err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "format JSON", err)
	}
	return "```json\n" + string(pretty) + "\n```", nil
}

// CSVToMarkdown renders CSV as a single Markdown table, per spec.md §6:
// header row separated by a |---| row, newlines in cells escaped as <br/>.
func CSVToMarkdown(data []byte) (string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "parse CSV", err)
	}
	return renderTable(rows), nil
}

// renderTable builds a Markdown table from rows, treating the first row as
// the header. Cells with embedded newlines are escaped as <br/> so the
// table stays well-formed.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = escapeCell(row[i])
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "<br/>")
	s = strings.ReplaceAll(s, "\n", "<br/>")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}
