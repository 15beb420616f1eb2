package models

import "time"

// RoleType classifies roles in the role-based access control (RBAC) system.
type RoleType string

const (
	// RoleTypePrivate is the single role scoped to exactly one user.
	RoleTypePrivate RoleType = "private"
	// RoleTypeUser is a shared role assigned directly to users.
	RoleTypeUser RoleType = "user"
	// RoleTypeGroup is a role reached through group membership.
	RoleTypeGroup RoleType = "group"
	// RoleTypeAdmin grants administrator rights to every member.
	RoleTypeAdmin RoleType = "admin"
	// RoleTypeSystem is reserved for roles created by the application itself.
	RoleTypeSystem RoleType = "system"
)

// Role represents a role in the role-based access control (RBAC) system.
// Datasets are shared by granting manage or access permissions to roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role; private roles use the owner's email.
	Name string `gorm:"unique;size:255;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Type classifies the role.
	Type RoleType `gorm:"type:varchar(20);not null;default:'user';index"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// PrimaryKey returns the role id.
func (r Role) PrimaryKey() uint64 {
	return uint64(r.ID)
}
