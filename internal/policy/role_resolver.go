package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/gate"
	"github.com/kerjaberkah/portal/internal/models"
)

// DBRoleResolver loads a user's roles and their permissions from the
// user_roles and role_permissions tables.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

// Resolve returns nil, nil for unknown users and users without roles.
func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint64) (gate.Role, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Roles.Permissions").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(user.Roles) == 0 {
		return nil, nil
	}
	set := make(gate.RoleSet, 0, len(user.Roles))
	for _, role := range user.Roles {
		perms := make([]gate.Permission, len(role.Permissions))
		for i, p := range role.Permissions {
			perms[i] = gate.NewPermission(p.ResourceType, gate.Action(p.Action))
		}
		set = append(set, gate.NewStaticRole(role.Name, perms...))
	}
	return set, nil
}
