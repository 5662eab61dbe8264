package gate

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedResolver wraps a RoleResolver with a bounded TTL cache so that
// authorization checks do not hit the database on every request.
type CachedResolver[U comparable] struct {
	inner RoleResolver[U]
	cache *expirable.LRU[U, cachedRole]
}

// cachedRole keeps "no role" results cacheable as well.
type cachedRole struct {
	role Role
}

// NewCachedResolver wraps inner. size bounds the number of cached users.
func NewCachedResolver[U comparable](inner RoleResolver[U], size int, ttl time.Duration) *CachedResolver[U] {
	if size <= 0 {
		size = 1024
	}
	return &CachedResolver[U]{
		inner: inner,
		cache: expirable.NewLRU[U, cachedRole](size, nil, ttl),
	}
}

// Resolve returns the cached role of user, fetching it from inner on miss.
// Errors are not cached.
func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (Role, error) {
	if entry, ok := r.cache.Get(user); ok {
		return entry.role, nil
	}
	role, err := r.inner.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	r.cache.Add(user, cachedRole{role: role})
	return role, nil
}

// Invalidate drops one user, e.g. after their role assignment changed.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.cache.Remove(user)
}

// InvalidateAll clears the cache, e.g. after role permissions changed.
func (r *CachedResolver[U]) InvalidateAll() {
	r.cache.Purge()
}
