package session

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}
var snapshotCtxKey = &contextKey{"snapshot"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the TenantClaims in the given context
func WithClaimsContext(r context.Context, claims TenantClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the TenantClaims from the standard context
func ClaimsFromContext(ctx context.Context) (TenantClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(TenantClaims)
	return raw, ok
}

// WithSnapshotContext sets the session Snapshot in the given context
func WithSnapshotContext(r context.Context, snap Snapshot) context.Context {
	return context.WithValue(r, snapshotCtxKey, snap)
}

// SnapshotFromContext extracts the session Snapshot from the standard context
func SnapshotFromContext(ctx context.Context) (Snapshot, bool) {
	raw, ok := ctx.Value(snapshotCtxKey).(Snapshot)
	return raw, ok
}

// RouterClaims extracts the TenantClaims stored by the guard middleware in
// the router context.
func RouterClaims(ctx router.Context, key string) (TenantClaims, bool) {
	if key == "" {
		key = "claims"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(TenantClaims)
	return claims, ok
}

// CanAccess is a convenience check against claims held in the context.
func CanAccess(ctx context.Context, tenantType TenantType, minRole Role) bool {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return false
	}

	if tenantType != "" && claims.TenantType() != tenantType {
		return false
	}
	if minRole != "" && !claims.IsAtLeast(minRole) {
		return false
	}
	return true
}
