package policy

import (
	"context"

	"github.com/kerjaberkah/portal/gate"
)

// Ownable resources report the user that owns them.
type Ownable interface {
	GetUserID() uint64
}

// OwnershipPolicy allows an action only on resources the user owns.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can allows nil resources (list/create are covered by role checks) and
// denies resources that do not implement Ownable.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint64, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// AdminBypassPolicy lets administrators through before consulting inner.
type AdminBypassPolicy struct {
	inner   gate.Policy[uint64]
	isAdmin func(ctx context.Context, userID uint64) bool
}

func NewAdminBypassPolicy(inner gate.Policy[uint64], isAdmin func(ctx context.Context, userID uint64) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID uint64, action gate.Action, resource any) bool {
	if p.isAdmin(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
