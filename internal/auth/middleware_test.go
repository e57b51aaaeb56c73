package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	if got := extractBearerToken(r); got != "abc.def.ghi" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBearerToken_MissingOrMalformed(t *testing.T) {
	cases := []string{"", "Basic abc123", "bearer lowercase", "Bearertoken"}
	for _, h := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		if got := extractBearerToken(r); got != "" {
			t.Errorf("header %q: expected empty token, got %q", h, got)
		}
	}
}

func TestAuthenticate_RejectsMissingToken(t *testing.T) {
	mw := NewJWTMiddleware("test-secret")
	called := false
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if called {
		t.Error("handler should not be called without a token")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthenticate_RejectsGarbageToken(t *testing.T) {
	mw := NewJWTMiddleware("test-secret")
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for an invalid token")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-real-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
