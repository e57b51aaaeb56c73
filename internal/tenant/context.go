// Package tenant carries the authenticated principal through request
// context. Per spec.md §6, the authentication layer is external and
// supplies calls bearing (tenant_id, role); the core never parses tokens
// or creates tenants — it only reads what auth middleware already placed
// on the context.
package tenant

import (
	"context"

	"github.com/kbstack/ragkb/internal/models"
)

type contextKey string

const tenantKey contextKey = "tenant"

func WithTenant(ctx context.Context, t models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

func FromContext(ctx context.Context) (models.Tenant, bool) {
	t, ok := ctx.Value(tenantKey).(models.Tenant)
	return t, ok
}

func IDFromContext(ctx context.Context) int64 {
	if t, ok := FromContext(ctx); ok {
		return t.ID
	}
	return 0
}
