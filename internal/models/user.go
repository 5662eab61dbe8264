package models

import (
	"time"

	"gorm.io/gorm"
)

// User type discriminators. Role names use the same values.
const (
	UserEmployee = "Employee"
	UserCompany  = "Company"
	UserAdmin    = "Admin"
)

// User is a local account. Credentials are verified by the external auth API;
// PasswordHash only holds the temporary credential issued at registration.
type User struct {
	ID           uint64         `gorm:"primaryKey" json:"id,string"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string         `gorm:"size:255" json:"name"`
	Type         string         `gorm:"size:20;not null" json:"type"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Roles        []Role         `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string { return "users" }

// Role groups permissions. Users get roles through the user_roles join table.
type Role struct {
	ID          uint64       `gorm:"primaryKey" json:"id,string"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Name        string       `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string       `gorm:"size:255" json:"description,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

func (Role) TableName() string { return "roles" }

// Permission represents a single action allowed on a resource type.
type Permission struct {
	ID           uint64    `gorm:"primaryKey" json:"id,string"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

func (Permission) TableName() string { return "permissions" }

// Code returns the permission in "resource:action" format.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Permission{}, &Role{}, &User{},
		&Category{}, &Post{}, &Documentation{},
		&Slider{}, &Highlight{}, &GalleryItem{},
		&Menu{}, &SubMenu{}, &FooterContent{},
		&Visitor{},
		&Company{}, &Vacancy{}, &Worker{},
	}
}
