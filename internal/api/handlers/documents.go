package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kbstack/ragkb/internal/apperr"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/tenant"
)

type DocumentHandler struct {
	svc *document.Service
}

func NewDocumentHandler(svc *document.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Forbidden, "missing tenant"))
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, apperr.New(apperr.Validation, "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Validation, "read upload", err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.svc.Upload(r.Context(), t.ID, data, header.Filename, contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var statusIn []models.DocumentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			statusIn = append(statusIn, models.DocumentStatus(part))
		}
	}

	docs, err := h.svc.List(r.Context(), t.ID, t.IsAdmin(), statusIn, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.GetStatus(r.Context(), t.ID, id, t.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rc, err := h.svc.DownloadMarkdown(r.Context(), t.ID, id, t.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "text/markdown")
	io.Copy(w, rc)
}

func (h *DocumentHandler) UploadMarkdown(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Validation, "read body", err))
		return
	}
	doc, err := h.svc.UploadMarkdown(r.Context(), t.ID, id, t.IsAdmin(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) RetryConversion(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.RetryConversion(r.Context(), t.ID, id, t.IsAdmin()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *DocumentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.Confirm(r.Context(), t.ID, id, t.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.Resubmit(r.Context(), t.ID, id, t.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, _ := tenant.FromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), t.ID, id, t.IsAdmin()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "invalid document id")
	}
	return id, nil
}
