package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/reconcile"
)

// AdminHandler exposes the reconciliation service (C8) and provider
// diagnostics, gated by auth.RequireAdmin at the route level.
type AdminHandler struct {
	reconcile *reconcile.Service
	providers *provider.Registry
}

func NewAdminHandler(reconcile *reconcile.Service, providers *provider.Registry) *AdminHandler {
	return &AdminHandler{reconcile: reconcile, providers: providers}
}

func (h *AdminHandler) RebuildVectors(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.reconcile.RebuildVectors(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

type reindexRequest struct {
	OwnerID  *int64   `json:"owner_id"`
	StatusIn []string `json:"status_in"`
}

func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	filter := reconcile.ReindexFilter{OwnerID: req.OwnerID}
	for _, s := range req.StatusIn {
		filter.StatusIn = append(filter.StatusIn, models.DocumentStatus(s))
	}
	result, err := h.reconcile.Reindex(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Probe reports per-provider health, per SPEC_FULL.md's diagnostics
// endpoint (grounded in original_source/backend/app/api/diagnostics.py).
func (h *AdminHandler) Probe(w http.ResponseWriter, r *http.Request) {
	results := h.providers.Probe(r.Context())
	out := make(map[string]string, len(results))
	for name, err := range results {
		if err == nil {
			out[name] = "ok"
		} else {
			out[name] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": out})
}
