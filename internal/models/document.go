package models

import "time"

type DocumentStatus string

const (
	DocStatusUploaded  DocumentStatus = "uploaded"
	DocStatusConfirmed DocumentStatus = "confirmed"
	DocStatusApproved  DocumentStatus = "approved"
	DocStatusIndexed   DocumentStatus = "indexed"
	DocStatusRejected  DocumentStatus = "rejected"
)

type ConversionStatus string

const (
	ConversionPending    ConversionStatus = "pending"
	ConversionProcessing ConversionStatus = "processing"
	ConversionReady      ConversionStatus = "ready"
	ConversionFailed     ConversionStatus = "failed"
)

// Document is the unit of upload, per spec.md §3.
type Document struct {
	ID               int64            `json:"id"`
	OwnerID          int64            `json:"owner_id"`
	Filename         string           `json:"filename"`
	ContentType      string           `json:"content_type"`
	SHA256           string           `json:"sha256"`
	SizeBytes        int64            `json:"size_bytes"`
	Status           DocumentStatus   `json:"status"`
	ConversionStatus ConversionStatus `json:"conversion_status"`
	BlobKey          string           `json:"blob_key,omitempty"`
	MarkdownKey      string           `json:"markdown_key,omitempty"`
	ConversionError  string           `json:"conversion_error,omitempty"`
	RejectReason     string           `json:"reject_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ConfirmedAt      *time.Time       `json:"confirmed_at,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	IndexedAt        *time.Time       `json:"indexed_at,omitempty"`
	ReviewerID       *int64           `json:"reviewer_id,omitempty"`
	PreviewText      string           `json:"preview_text,omitempty"`
}

// Chunk is the unit of retrieval, per spec.md §3.
type Chunk struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	CharCount  int    `json:"char_count"`
	Included   bool   `json:"included"`
}

type ReviewActionKind string

const (
	ReviewApprove ReviewActionKind = "approve"
	ReviewReject  ReviewActionKind = "reject"
)

// ReviewAction is an append-only audit log entry, per spec.md §3.
type ReviewAction struct {
	ID         int64            `json:"id"`
	DocumentID int64            `json:"document_id"`
	ReviewerID int64            `json:"reviewer_id"`
	Action     ReviewActionKind `json:"action"`
	Reason     string           `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
