package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/tenant"
)

type SettingsHandler struct {
	store *tenant.SettingsStore
}

func NewSettingsHandler(store *tenant.SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	settings, err := h.store.Get(r.Context(), t.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	var body struct {
		LLMProvider       string  `json:"llm_provider"`
		LLMModel          string  `json:"llm_model"`
		EmbeddingProvider string  `json:"embedding_provider"`
		EmbeddingModel    string  `json:"embedding_model"`
		TopK              int     `json:"top_k"`
		Temperature       float64 `json:"temperature"`
		RerankEnabled     bool    `json:"rerank_enabled"`
		RerankProvider    string  `json:"rerank_provider"`
		RerankModel       string  `json:"rerank_model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	settings := models.TenantSettings{
		TenantID:          t.ID,
		LLMProvider:       body.LLMProvider,
		LLMModel:          body.LLMModel,
		EmbeddingProvider: body.EmbeddingProvider,
		EmbeddingModel:    body.EmbeddingModel,
		TopK:              body.TopK,
		Temperature:       body.Temperature,
		RerankEnabled:     body.RerankEnabled,
		RerankProvider:    body.RerankProvider,
		RerankModel:       body.RerankModel,
	}
	if err := h.store.Save(r.Context(), settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
