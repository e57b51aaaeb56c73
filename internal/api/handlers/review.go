package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/tenant"
)

// ReviewHandler exposes approve/reject — admin-only operations gated by
// auth.RequireAdmin at the route level, per spec.md §4.6.
type ReviewHandler struct {
	svc *document.Service
}

func NewReviewHandler(svc *document.Service) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.Approve(r.Context(), t.ID, id)
	if err != nil {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"document": doc, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	doc, err := h.svc.Reject(r.Context(), t.ID, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
