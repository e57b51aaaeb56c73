package apperr

import (
	"errors"
	"testing"
)

func TestNew_KindOf(t *testing.T) {
	err := New(NotFound, "document 4 not found")
	if KindOf(err) != NotFound {
		t.Errorf("got %s, want %s", KindOf(err), NotFound)
	}
	if !Is(err, NotFound) {
		t.Error("Is(err, NotFound) should be true")
	}
	if Is(err, Forbidden) {
		t.Error("Is(err, Forbidden) should be false")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(DBError, "query failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through Wrap to the cause")
	}
	if KindOf(err) != DBError {
		t.Errorf("got %s, want %s", KindOf(err), DBError)
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestKindOf_DefaultsUnclassified(t *testing.T) {
	plain := errors.New("boom")
	if KindOf(plain) != DBError {
		t.Errorf("unclassified error should default to DBError, got %s", KindOf(plain))
	}
	if Is(plain, DBError) {
		t.Error("Is should require an *Error, not fall back for plain errors")
	}
}

func TestIs_MatchesOutermostKindOnly(t *testing.T) {
	inner := New(ProviderBusy, "rate limited")
	outer := Wrap(ProviderUnavailable, "embedder call failed", inner)

	if !Is(outer, ProviderUnavailable) {
		t.Error("Is should match the outer wrapping kind")
	}
	if Is(outer, ProviderBusy) {
		t.Error("KindOf/Is inspect only the outermost *Error, not errors further wrapped via Err")
	}
}
