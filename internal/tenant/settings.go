package tenant

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
)

// SettingsStore persists per-tenant retrieval defaults (spec.md §3). Unlike
// the Tenant entity itself, settings are core-owned: the query path reads
// them to fill in top_k, temperature and rerank_enabled when the caller
// omits them. The stored provider and model fields are not read by the
// query path.
type SettingsStore struct {
	db *pgxpool.Pool
}

func NewSettingsStore(db *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the tenant's saved settings, or the package defaults if the
// tenant has never saved any.
func (s *SettingsStore) Get(ctx context.Context, tenantID int64) (models.TenantSettings, error) {
	var st models.TenantSettings
	err := s.db.QueryRow(ctx,
		`SELECT tenant_id, llm_provider, llm_model, embedding_provider, embedding_model,
		        top_k, temperature, rerank_enabled, rerank_provider, rerank_model, updated_at
		 FROM tenant_settings WHERE tenant_id = $1`, tenantID,
	).Scan(&st.TenantID, &st.LLMProvider, &st.LLMModel, &st.EmbeddingProvider, &st.EmbeddingModel,
		&st.TopK, &st.Temperature, &st.RerankEnabled, &st.RerankProvider, &st.RerankModel, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultTenantSettings(tenantID), nil
	}
	if err != nil {
		return models.TenantSettings{}, apperr.Wrap(apperr.DBError, "get tenant settings", err)
	}
	return st, nil
}

// Save upserts the tenant's settings.
func (s *SettingsStore) Save(ctx context.Context, st models.TenantSettings) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenant_settings
		   (tenant_id, llm_provider, llm_model, embedding_provider, embedding_model,
		    top_k, temperature, rerank_enabled, rerank_provider, rerank_model, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   llm_provider = $2, llm_model = $3, embedding_provider = $4, embedding_model = $5,
		   top_k = $6, temperature = $7, rerank_enabled = $8, rerank_provider = $9,
		   rerank_model = $10, updated_at = now()`,
		st.TenantID, st.LLMProvider, st.LLMModel, st.EmbeddingProvider, st.EmbeddingModel,
		st.TopK, st.Temperature, st.RerankEnabled, st.RerankProvider, st.RerankModel,
	)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "save tenant settings", err)
	}
	return nil
}
