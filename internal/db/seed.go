package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/internal/models"
)

// permissionSeeds lists every resource:action pair the API checks.
var permissionSeeds = []struct {
	ResourceType string
	Action       string
	Description  string
}{
	{"*", "*", "Full system access"},
	{"news", "*", "All news actions"},
	{"documentation", "*", "All documentation actions"},
	{"slider", "*", "All slider actions"},
	{"gallery", "*", "All gallery actions"},
	{"upload", "create", "Request signed upload URLs"},
	{"vacancy", "*", "All vacancy actions"},
	{"vacancy", "create", "Publish vacancies"},
	{"vacancy", "update", "Edit vacancies"},
	{"vacancy", "delete", "Remove vacancies"},
	{"company", "view", "View company profile"},
	{"company", "update", "Edit company profile"},
	{"worker", "view", "View worker profile"},
	{"worker", "update", "Edit worker profile"},
	{"worker", "delete", "Remove worker profiles"},
	{"visitor", "list", "Read visitor statistics"},
}

// roleSeeds are the roles assigned at registration, plus the administrator.
var roleSeeds = []struct {
	Name        string
	Description string
	Permissions []string
}{
	{models.UserAdmin, "Portal administrator", []string{"*:*"}},
	{models.UserCompany, "Registered employer", []string{"vacancy:create", "vacancy:update", "vacancy:delete", "company:view", "company:update"}},
	{models.UserEmployee, "Registered job seeker", []string{"worker:view", "worker:update"}},
}

// Seed creates the permissions and system roles. It is idempotent.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byCode := make(map[string]models.Permission, len(permissionSeeds))
		for _, p := range permissionSeeds {
			perm := models.Permission{ResourceType: p.ResourceType, Action: p.Action, Description: p.Description}
			if err := tx.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
				FirstOrCreate(&perm).Error; err != nil {
				return fmt.Errorf("seed permission %s:%s: %w", p.ResourceType, p.Action, err)
			}
			byCode[perm.Code()] = perm
		}

		for _, r := range roleSeeds {
			role := models.Role{Name: r.Name, Description: r.Description}
			if err := tx.Where("name = ?", r.Name).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", r.Name, err)
			}
			perms := make([]models.Permission, 0, len(r.Permissions))
			for _, code := range r.Permissions {
				p, ok := byCode[code]
				if !ok {
					return fmt.Errorf("role %s references unknown permission %s", r.Name, code)
				}
				perms = append(perms, p)
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("assign permissions to %s: %w", r.Name, err)
			}
		}
		return nil
	})
}
