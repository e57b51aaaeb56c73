package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/tenant"
)

type ChunkHandler struct {
	svc *document.Service
}

func NewChunkHandler(svc *document.Service) *ChunkHandler {
	return &ChunkHandler{svc: svc}
}

func (h *ChunkHandler) List(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	chunks, err := h.svc.ListChunks(r.Context(), t.ID, id, t.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks, "count": len(chunks)})
}

type createChunkRequest struct {
	Content     string `json:"content"`
	SyncVectors bool   `json:"sync_vectors"`
}

func (h *ChunkHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	chunks, err := h.svc.CreateChunk(r.Context(), t.ID, id, t.IsAdmin(), req.Content, req.SyncVectors)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"chunks": chunks})
}

type updateChunkRequest struct {
	Content     *string `json:"content"`
	Included    *bool   `json:"included"`
	SyncVectors bool    `json:"sync_vectors"`
}

func (h *ChunkHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid chunk index"))
		return
	}
	var req updateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	chunk, err := h.svc.UpdateChunk(r.Context(), t.ID, id, t.IsAdmin(), idx,
		document.UpdateChunkRequest{Content: req.Content, Included: req.Included}, req.SyncVectors)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (h *ChunkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid chunk index"))
		return
	}
	syncVectors := r.URL.Query().Get("sync_vectors") == "true"
	chunks, err := h.svc.DeleteChunk(r.Context(), t.ID, id, t.IsAdmin(), idx, syncVectors)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks})
}
