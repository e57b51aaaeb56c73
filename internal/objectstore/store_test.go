package objectstore

import (
	"strings"
	"testing"
)

func TestDocumentKey_Format(t *testing.T) {
	key := DocumentKey(42, "report.pdf")
	if !strings.HasPrefix(key, "tenant_42/documents/") {
		t.Errorf("key %q missing tenant/documents prefix", key)
	}
	if !strings.HasSuffix(key, "/report.pdf") {
		t.Errorf("key %q missing filename suffix", key)
	}
}

func TestDocumentKey_UniquePerCall(t *testing.T) {
	a := DocumentKey(1, "same.txt")
	b := DocumentKey(1, "same.txt")
	if a == b {
		t.Error("DocumentKey should embed a fresh uuid per call to avoid collisions")
	}
}

func TestMarkdownKey_Format(t *testing.T) {
	key := MarkdownKey(7, 99)
	if key != "tenant_7/markdown/99.md" {
		t.Errorf("got %q", key)
	}
}

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":         "report.pdf",
		"../../etc/passwd":   "_.._etc_passwd",
		"a/b\\c":             "a_b_c",
		"weird name!@#.docx": "weird_name___.docx",
		"":                   "file",
		"...":                "file",
		"café.txt":           "caf_.txt",
	}
	for in, want := range cases {
		got := SafeFilename(in)
		if got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeFilename_NeverContainsPathSeparators(t *testing.T) {
	got := SafeFilename("../../../../etc/shadow")
	if strings.Contains(got, "/") || strings.Contains(got, "\\") {
		t.Errorf("SafeFilename must strip path separators, got %q", got)
	}
}
