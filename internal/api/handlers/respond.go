package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kbstack/ragkb/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps an apperr.Kind to an HTTP status and writes a
// {"error": {"kind":..., "message":...}} body, per spec.md §7.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.Validation, apperr.DimensionMismatch:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.Precondition, apperr.ConversionFailed:
		status = http.StatusConflict
	case apperr.ProviderBusy:
		status = http.StatusTooManyRequests
	case apperr.ProviderUnavailable, apperr.ProviderBadResponse, apperr.StorageError, apperr.VectorError, apperr.DBError:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"kind": string(kind), "message": err.Error()},
	})
}
