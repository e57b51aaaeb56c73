package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbstack/ragkb/internal/models"
	"github.com/kbstack/ragkb/internal/tenant"
)

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for a non-admin caller")
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(tenant.WithTenant(r.Context(), models.Tenant{ID: 1, Role: models.RoleUser}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdmin_RejectsMissingTenant(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a tenant on context")
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	called := false
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(tenant.WithTenant(r.Context(), models.Tenant{ID: 1, Role: models.RoleAdmin}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if !called {
		t.Error("handler should run for an admin caller")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
