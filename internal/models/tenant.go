package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Tenant is the authenticated principal that owns documents, chunks, blobs
// and vectors. The core never creates tenants — that is the auth layer's job
// (spec.md §6); this just models the shape the core reads off request context.
type Tenant struct {
	ID   int64
	Role Role
}

func (t Tenant) IsAdmin() bool { return t.Role == RoleAdmin }

// TenantSettings holds per-tenant defaults for the retrieval path, per
// spec.md §3. Supplemented with UpdatedAt per original_source's
// UserSettings unique-constraint table (see SPEC_FULL.md §3).
type TenantSettings struct {
	TenantID          int64     `json:"tenant_id"`
	LLMProvider       string    `json:"llm_provider"`
	LLMModel          string    `json:"llm_model"`
	EmbeddingProvider string    `json:"embedding_provider"`
	EmbeddingModel    string    `json:"embedding_model"`
	TopK              int       `json:"top_k"`
	Temperature       float64   `json:"temperature"`
	RerankEnabled     bool      `json:"rerank_enabled"`
	RerankProvider    string    `json:"rerank_provider"`
	RerankModel       string    `json:"rerank_model"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultTenantSettings is applied when a tenant has never saved settings.
func DefaultTenantSettings(tenantID int64) TenantSettings {
	return TenantSettings{
		TenantID:          tenantID,
		LLMProvider:       "ollama",
		LLMModel:          "llama3",
		EmbeddingProvider: "hash",
		EmbeddingModel:    "hash-384",
		TopK:              5,
		Temperature:       0.7,
		RerankEnabled:     false,
		RerankProvider:    "none",
		RerankModel:       "",
	}
}
