package textconv

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kbstack/ragkb/internal/apperr"
)

// XLSXToMarkdown renders each sheet as its own Markdown table, headed by a
// "## sheetN" line, grounded in original_source's document_parser.py XLSX
// handling (raw zip + sharedStrings.xml + sheetN.xml walk via
// ElementTree), upgraded here to genuine Markdown tables.
func XLSXToMarkdown(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "open XLSX archive", err)
	}

	shared, err := readSharedStrings(zr)
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "read sharedStrings.xml", err)
	}

	sheetFiles := map[string]*zip.File{}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles[f.Name] = f
		}
	}
	if len(sheetFiles) == 0 {
		return "", apperr.New(apperr.ConversionFailed, "XLSX archive has no worksheets")
	}

	names := make([]string, 0, len(sheetFiles))
	for name := range sheetFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		rows, err := readSheetRows(sheetFiles[name], shared)
		if err != nil {
			return "", apperr.Wrap(apperr.ConversionFailed, fmt.Sprintf("read %s", name), err)
		}
		out.WriteString("## ")
		out.WriteString(strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/"), ".xml"))
		out.WriteString("\n\n")
		out.WriteString(renderTable(rows))
		out.WriteString("\n\n")
	}
	return strings.TrimSpace(out.String()), nil
}

func readSharedStrings(zr *zip.Reader) ([]string, error) {
	f := findFile(zr, "xl/sharedStrings.xml")
	if f == nil {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var sst struct {
		SI []struct {
			T   string `xml:"t"`
			R   []struct {
				T string `xml:"t"`
			} `xml:"r"`
		} `xml:"si"`
	}
	if err := xml.NewDecoder(rc).Decode(&sst); err != nil {
		return nil, err
	}

	strs := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			strs[i] = si.T
			continue
		}
		var b strings.Builder
		for _, r := range si.R {
			b.WriteString(r.T)
		}
		strs[i] = b.String()
	}
	return strs, nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type xlsxCell struct {
	Ref string `xml:"r,attr"`
	T   string `xml:"t,attr"`
	V   string `xml:"v"`
	Is  struct {
		T string `xml:"t"`
	} `xml:"is"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxSheetData struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

func readSheetRows(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var sheet xlsxSheetData
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return nil, err
	}

	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		var cells []string
		for _, c := range row.Cells {
			col := columnIndex(c.Ref)
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = resolveCellValue(c, shared)
		}
		rows[i] = cells
	}
	return rows, nil
}

// columnIndex converts a cell reference like "C2" into a zero-based column
// index (A=0, B=1, ...). XLSX omits empty cells from the XML, so the
// column letter is the only way to preserve sparse layout.
func columnIndex(ref string) int {
	idx := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1
}

func resolveCellValue(c xlsxCell, shared []string) string {
	if c.T == "s" {
		idx, err := strconv.Atoi(strings.TrimSpace(c.V))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	}
	if c.T == "inlineStr" {
		return c.Is.T
	}
	return c.V
}
