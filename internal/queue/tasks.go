package queue

// TypeDocumentConvert is the one task type the conversion queue carries:
// one job converts one document, per spec.md §4.5.
const TypeDocumentConvert = "document:convert"

type DocumentConvertPayload struct {
	DocumentID int64 `json:"document_id"`
}
