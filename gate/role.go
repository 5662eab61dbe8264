package gate

import (
	"context"
	"sort"
)

// Role is a named set of permissions. A user holding several roles is
// represented by a RoleSet.
type Role interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// RoleResolver resolves a user to the roles they hold.
// A nil Role with a nil error means the user holds no role.
type RoleResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Role, error)
}

// StaticRole is an in-memory role, used for seeding and tests.
type StaticRole struct {
	name        string
	permissions map[Permission]bool
}

// NewStaticRole creates a role with the given permissions.
func NewStaticRole(name string, permissions ...Permission) *StaticRole {
	r := &StaticRole{name: name, permissions: make(map[Permission]bool, len(permissions))}
	for _, perm := range permissions {
		r.permissions[perm] = true
	}
	return r
}

func (r *StaticRole) Name() string { return r.name }

func (r *StaticRole) Permissions() []Permission {
	perms := make([]Permission, 0, len(r.permissions))
	for perm := range r.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

func (r *StaticRole) HasPermission(requested Permission) bool {
	for perm := range r.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// RoleSet merges the permissions of several roles.
type RoleSet []Role

// Name joins member names with "+", e.g. "Company+Admin".
func (s RoleSet) Name() string {
	name := ""
	for i, r := range s {
		if i > 0 {
			name += "+"
		}
		name += r.Name()
	}
	return name
}

func (s RoleSet) HasPermission(requested Permission) bool {
	for _, r := range s {
		if r.HasPermission(requested) {
			return true
		}
	}
	return false
}

func (s RoleSet) Permissions() []Permission {
	seen := make(map[Permission]bool)
	var out []Permission
	for _, r := range s {
		for _, p := range r.Permissions() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// HasRole reports whether any member role carries the given name.
func (s RoleSet) HasRole(name string) bool {
	for _, r := range s {
		if r.Name() == name {
			return true
		}
	}
	return false
}

// StaticResolver maps users to roles in memory.
type StaticResolver[U comparable] struct {
	roles map[U]Role
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{roles: make(map[U]Role)}
}

// Set assigns a role to a user. Not safe for use concurrently with Resolve.
func (r *StaticResolver[U]) Set(user U, role Role) {
	r.roles[user] = role
}

func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Role, error) {
	if role, ok := r.roles[user]; ok {
		return role, nil
	}
	return nil, nil
}
