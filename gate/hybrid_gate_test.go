package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kerjaberkah/portal/gate"
)

type ownedResource struct{ ownerID uint64 }

type ownerPolicy struct{}

func (ownerPolicy) Can(_ context.Context, user uint64, _ gate.Action, resource any) bool {
	r, ok := resource.(*ownedResource)
	return ok && r.ownerID == user
}

func TestHybridGate_RoleOnly(t *testing.T) {
	resolver := gate.NewStaticResolver[uint64]()
	resolver.Set(1, gate.NewStaticRole("Company", "vacancy:create", "vacancy:view"))
	g := gate.NewHybridGate[uint64](resolver)

	if !g.Can(context.Background(), 1, gate.ActionCreate, "vacancy", nil) {
		t.Error("user with permission should be allowed")
	}
	if err := g.Authorize(context.Background(), 1, gate.ActionDelete, "vacancy", nil); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if g.Can(context.Background(), 2, gate.ActionView, "vacancy", nil) {
		t.Error("user without role should be denied")
	}
	if err := g.Authorize(context.Background(), 0, gate.ActionView, "vacancy", nil); !errors.Is(err, gate.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for zero user, got %v", err)
	}
}

func TestHybridGate_WithOwnershipPolicy(t *testing.T) {
	resolver := gate.NewStaticResolver[uint64]()
	employee := gate.NewStaticRole("Employee", "worker:update")
	resolver.Set(1, employee)
	resolver.Set(2, employee)
	g := gate.NewHybridGate[uint64](resolver)
	g.Register("worker", ownerPolicy{})

	profile := &ownedResource{ownerID: 1}
	if !g.Can(context.Background(), 1, gate.ActionUpdate, "worker", profile) {
		t.Error("owner should be allowed")
	}
	if g.Can(context.Background(), 2, gate.ActionUpdate, "worker", profile) {
		t.Error("non-owner should be denied even with role permission")
	}
}

func TestHybridGate_CanRoleAndSuperAdmin(t *testing.T) {
	resolver := gate.NewStaticResolver[uint64]()
	resolver.Set(1, gate.NewStaticRole("Employee", "worker:update"))
	resolver.Set(9, gate.NewStaticRole("Admin", gate.PermissionSuperAdmin))
	g := gate.NewHybridGate[uint64](resolver)
	g.Register("worker", ownerPolicy{})

	if !g.CanRole(context.Background(), 1, gate.ActionUpdate, "worker") {
		t.Error("CanRole should ignore ownership")
	}
	if g.IsSuperAdmin(context.Background(), 1) {
		t.Error("employee is not a super admin")
	}
	if !g.IsSuperAdmin(context.Background(), 9) {
		t.Error("admin should be a super admin")
	}
}
