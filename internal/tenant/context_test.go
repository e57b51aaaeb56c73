package tenant

import (
	"context"
	"testing"

	"github.com/kbstack/ragkb/internal/models"
)

func TestWithTenant_FromContext(t *testing.T) {
	ctx := WithTenant(context.Background(), models.Tenant{ID: 5, Role: models.RoleAdmin})
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected a tenant to be present")
	}
	if got.ID != 5 || got.Role != models.RoleAdmin {
		t.Errorf("got %+v", got)
	}
}

func TestFromContext_Absent(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no tenant on a bare context")
	}
}

func TestIDFromContext(t *testing.T) {
	if got := IDFromContext(context.Background()); got != 0 {
		t.Errorf("expected 0 for a bare context, got %d", got)
	}
	ctx := WithTenant(context.Background(), models.Tenant{ID: 42})
	if got := IDFromContext(ctx); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}
