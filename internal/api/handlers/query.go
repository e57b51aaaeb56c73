package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/retrieval"
	"github.com/kbstack/ragkb/internal/tenant"
)

type QueryHandler struct {
	svc *retrieval.Service
}

func NewQueryHandler(svc *retrieval.Service) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type queryRequest struct {
	Text        string  `json:"text"`
	TopK        *int    `json:"top_k"`
	Temperature float64 `json:"temperature"`
	Rerank      *bool   `json:"rerank"`
	Scope       string  `json:"scope"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Forbidden, "missing tenant"))
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	if req.Text == "" {
		writeError(w, apperr.New(apperr.Validation, "text is required"))
		return
	}
	if req.TopK != nil && *req.TopK < 1 {
		writeError(w, apperr.New(apperr.Validation, "top_k must be at least 1"))
		return
	}

	result, err := h.svc.Query(r.Context(), t, req.Text, retrieval.QueryOptions{
		TopK:        req.TopK,
		Temperature: req.Temperature,
		Rerank:      req.Rerank,
		Scope:       req.Scope,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
