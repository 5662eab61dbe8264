package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/httpx"
)

// AuthGate is the single authorization point of the application: a
// HybridGate over database roles, fronted by a TTL cache.
type AuthGate struct {
	Gate          *gate.HybridGate[uint64]
	CacheResolver *gate.CachedResolver[uint64]
}

// NewAuthGate builds the gate. cacheTTL bounds how long role changes take
// to become visible without an explicit invalidation.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	dbResolver := NewDBRoleResolver(db)
	cachedResolver := gate.NewCachedResolver[uint64](dbResolver, 4096, cacheTTL)
	return &AuthGate{
		Gate:          gate.NewHybridGate[uint64](cachedResolver),
		CacheResolver: cachedResolver,
	}
}

// RegisterPolicy adds a resource policy, e.g. ownership for "vacancy".
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uint64]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks the current user against action on resource.
// It returns gate.ErrUnauthenticated or gate.ErrForbidden on denial.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanRole checks role permissions only, before a resource is loaded.
func (ag *AuthGate) CanRole(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanRole(ctx, userID, action, resourceType)
}

// IsAdmin reports whether the current user holds "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.IsSuperAdmin(ctx, userID)
}

// InvalidateUser drops the cached roles of one user.
func (ag *AuthGate) InvalidateUser(userID uint64) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll drops every cached role, e.g. after a permission change.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission rejects requests whose user lacks resource:action.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !ag.CanRole(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets "*:*" holders through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !ag.IsAdmin(r.Context()) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
