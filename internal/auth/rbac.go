package auth

import (
	"net/http"

	"github.com/kbstack/ragkb/internal/tenant"
)

// RequireAdmin gates handlers that only an admin-role caller may reach:
// review actions and the reconciliation endpoints (spec.md §4.6, §4.8).
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, ok := tenant.FromContext(r.Context())
		if !ok || !t.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
