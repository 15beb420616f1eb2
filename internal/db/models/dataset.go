package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DatasetState is the lifecycle state of a dataset's content.
type DatasetState string

// Dataset states.
const (
	DatasetStateNew            DatasetState = "new"
	DatasetStateUpload         DatasetState = "upload"
	DatasetStateQueued         DatasetState = "queued"
	DatasetStateRunning        DatasetState = "running"
	DatasetStateOK             DatasetState = "ok"
	DatasetStateEmpty          DatasetState = "empty"
	DatasetStateError          DatasetState = "error"
	DatasetStatePaused         DatasetState = "paused"
	DatasetStateSettingMeta    DatasetState = "setting_metadata"
	DatasetStateFailedMetadata DatasetState = "failed_metadata"
	DatasetStateDeferred       DatasetState = "deferred"
	DatasetStateDiscarded      DatasetState = "discarded"
)

// DatasetStates lists every valid dataset state.
var DatasetStates = []DatasetState{ //nolint:gochecknoglobals
	DatasetStateNew,
	DatasetStateUpload,
	DatasetStateQueued,
	DatasetStateRunning,
	DatasetStateOK,
	DatasetStateEmpty,
	DatasetStateError,
	DatasetStatePaused,
	DatasetStateSettingMeta,
	DatasetStateFailedMetadata,
	DatasetStateDeferred,
	DatasetStateDiscarded,
}

// Valid reports whether s is a known dataset state.
func (s DatasetState) Valid() bool {
	return slices.Contains(DatasetStates, s)
}

// Dataset is a unit of stored data. Purged implies Deleted.
type Dataset struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	// UUID is assigned on insert when empty.
	UUID  string       `gorm:"size:36;uniqueIndex;not null"`
	State DatasetState `gorm:"type:varchar(64);not null;default:'new';index"`
	// Deleted marks the dataset as soft deleted.
	Deleted bool `gorm:"not null;default:false;index"`
	// Purged marks the dataset content as removed for good.
	Purged bool `gorm:"not null;default:false;index"`
	// Purgable allows the dataset content to be purged once deleted.
	Purgable bool `gorm:"not null"`
	// FileSize is the size of the primary file in bytes, nil until known.
	FileSize *int64
	// TotalSize is FileSize plus the extra files, nil until known.
	TotalSize *int64
	// ObjectStoreID names the object store holding the content.
	ObjectStoreID string `gorm:"size:255"`
	// ExternalFilename points at content stored outside the object store.
	ExternalFilename string `gorm:"size:1024"`
}

// TableName specifies the database table name for the Dataset model.
func (Dataset) TableName() string {
	return "datasets"
}

// PrimaryKey returns the dataset id.
func (d Dataset) PrimaryKey() uint64 {
	return d.ID
}

// BeforeCreate fills in the uuid and the initial state.
func (d *Dataset) BeforeCreate(_ *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}

	if d.State == "" {
		d.State = DatasetStateNew
	}

	return nil
}

// NewDataset returns an empty dataset with the default flags.
func NewDataset() *Dataset {
	return &Dataset{State: DatasetStateNew, Purgable: true}
}
