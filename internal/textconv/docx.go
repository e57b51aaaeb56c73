package textconv

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/kbstack/ragkb/internal/apperr"
)

// DOCXToMarkdown extracts paragraph text from word/document.xml, grounded
// in the teacher's pkg/textextract.extractDOCX zip+tag-strip technique.
// Paragraph boundaries (w:p) are preserved as blank lines so downstream
// splitting can still find semantic-paragraph boundaries.
func DOCXToMarkdown(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.ConversionFailed, "open DOCX archive", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", apperr.Wrap(apperr.ConversionFailed, "open document.xml", err)
			}
			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(rc); err != nil {
				rc.Close()
				return "", apperr.Wrap(apperr.ConversionFailed, "read document.xml", err)
			}
			rc.Close()
			docXML = buf.Bytes()
			break
		}
	}
	if docXML == nil {
		return "", apperr.New(apperr.ConversionFailed, "DOCX archive has no word/document.xml")
	}

	return strings.TrimSpace(paragraphsFromDocumentXML(string(docXML))), nil
}

// paragraphsFromDocumentXML splits on paragraph close tags so each
// paragraph's text lands on its own line, then strips remaining tags.
func paragraphsFromDocumentXML(xmlText string) string {
	paras := strings.Split(xmlText, "</w:p>")
	var b strings.Builder
	for _, p := range paras {
		text := stripTags(p)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func stripTags(s string) string {
	var result strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	fields := strings.Fields(result.String())
	return strings.Join(fields, " ")
}
