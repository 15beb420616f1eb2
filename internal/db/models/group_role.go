package models

import "time"

// GroupRole maps a group to a role. A group may map to several roles.
type GroupRole struct {
	// GroupID is the ID of the group being mapped.
	GroupID uint `gorm:"primaryKey;column:group_id"`
	// RoleID is the ID of the role that group members will receive.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// Group is the associated group; mappings are removed with the group (CASCADE).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// Role is the associated role; mappings are removed with the role (CASCADE).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the mapping was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the GroupRole model.
func (GroupRole) TableName() string {
	return "group_roles"
}
