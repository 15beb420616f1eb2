package models

import "time"

// DatasetAction is the kind of authority a dataset permission confers.
type DatasetAction string

const (
	// DatasetActionManage allows changing the dataset's permissions.
	DatasetActionManage DatasetAction = "manage"
	// DatasetActionAccess allows reading the dataset.
	DatasetActionAccess DatasetAction = "access"
)

// DatasetPermission grants one action on one dataset to one role.
type DatasetPermission struct {
	ID        uint64        `gorm:"primaryKey"`
	DatasetID uint64        `gorm:"not null;index:idx_dataset_action"`
	Action    DatasetAction `gorm:"type:varchar(20);not null;index:idx_dataset_action"`
	RoleID    uint          `gorm:"not null;index"`
	Dataset   Dataset       `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`
	Role      Role          `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DatasetPermission model.
func (DatasetPermission) TableName() string {
	return "dataset_permissions"
}

// PrimaryKey returns the permission id.
func (p DatasetPermission) PrimaryKey() uint64 {
	return p.ID
}
