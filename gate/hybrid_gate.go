// Package gate implements role based authorization with optional
// resource policies. It knows nothing about the domain models; the host
// application supplies a RoleResolver and registers policies per resource type.
package gate

import "context"

// HybridGate combines role permissions with resource-specific policies.
// Authorization flow:
//  1. the user must be non-zero
//  2. the user's roles must grant resource:action
//  3. if a policy is registered for the resource type and a resource is given,
//     the policy must allow it
type HybridGate[U comparable] struct {
	resolver RoleResolver[U]
	policies map[string]Policy[U]
}

func NewHybridGate[U comparable](resolver RoleResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a policy for a resource type. Call during setup only.
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns ErrUnauthenticated for the zero user and ErrForbidden
// when either the role check or the resource policy denies the action.
func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	if !g.CanRole(ctx, user, action, resourceType) {
		return ErrForbidden
	}
	if resource != nil {
		if policy, ok := g.policies[resourceType]; ok && !policy.Can(ctx, user, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

func (g *HybridGate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanRole checks only role permissions, without any resource policy.
func (g *HybridGate[U]) CanRole(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	role, err := g.resolver.Resolve(ctx, user)
	if err != nil || role == nil {
		return false
	}
	return role.HasPermission(NewPermission(resourceType, action))
}

// IsSuperAdmin reports whether the user's roles carry "*:*".
func (g *HybridGate[U]) IsSuperAdmin(ctx context.Context, user U) bool {
	var zero U
	if user == zero {
		return false
	}
	role, err := g.resolver.Resolve(ctx, user)
	if err != nil || role == nil {
		return false
	}
	return role.HasPermission(PermissionSuperAdmin)
}
