package textconv

import (
	"strings"
	"testing"
)

func TestPlainText_TrimsWhitespace(t *testing.T) {
	got, err := PlainText([]byte("  \n hello world \n\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestJSONToMarkdown_FencedCodeBlock(t *testing.T) {
	got, err := JSONToMarkdown([]byte(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "```json\n") || !strings.HasSuffix(got, "\n```") {
		t.Errorf("expected a fenced json block, got %q", got)
	}
}

func TestJSONToMarkdown_InvalidJSON(t *testing.T) {
	_, err := JSONToMarkdown([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestCSVToMarkdown_RendersTable(t *testing.T) {
	got, err := CSVToMarkdown([]byte("name,age\nAlice,30\nBob,25\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "| name | age |\n| --- | --- |\n| Alice | 30 |\n| Bob | 25 |"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVToMarkdown_EscapesPipesAndNewlines(t *testing.T) {
	got, err := CSVToMarkdown([]byte("col\n\"a|b\"\n\"line1\nline2\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `a\|b`) {
		t.Errorf("expected escaped pipe, got %q", got)
	}
	if !strings.Contains(got, "line1<br/>line2") {
		t.Errorf("expected escaped newline, got %q", got)
	}
}

func TestCSVToMarkdown_RaggedRows(t *testing.T) {
	// CSV rows of differing widths still produce a well-formed table,
	// padded to the widest row.
	got, err := CSVToMarkdown([]byte("a,b,c\nx,y\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
	for _, line := range lines {
		if strings.Count(line, "|") != 4 {
			t.Errorf("expected every row padded to 3 columns, got %q", line)
		}
	}
}

func TestColumnIndex(t *testing.T) {
	cases := map[string]int{
		"A1":  0,
		"B1":  1,
		"Z1":  25,
		"AA1": 26,
	}
	for ref, want := range cases {
		if got := columnIndex(ref); got != want {
			t.Errorf("columnIndex(%q) = %d, want %d", ref, got, want)
		}
	}
}

func TestResolveCellValue(t *testing.T) {
	shared := []string{"Name", "Age"}

	shared0 := xlsxCell{T: "s", V: "0"}
	if got := resolveCellValue(shared0, shared); got != "Name" {
		t.Errorf("shared string lookup: got %q, want Name", got)
	}

	numeric := xlsxCell{V: "42"}
	if got := resolveCellValue(numeric, shared); got != "42" {
		t.Errorf("numeric passthrough: got %q, want 42", got)
	}

	oob := xlsxCell{T: "s", V: "99"}
	if got := resolveCellValue(oob, shared); got != "" {
		t.Errorf("out-of-range shared index should resolve to empty, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<w:r><w:t>Hello</w:t></w:r><w:r><w:t>World</w:t></w:r>`)
	if got != "Hello World" {
		t.Errorf("got %q", got)
	}
}

func TestParagraphsFromDocumentXML(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>First</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p></w:body>`
	got := paragraphsFromDocumentXML(xml)
	want := "First\n\nSecond\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
