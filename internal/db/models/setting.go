// Package models contains database model definitions.
package models

// Setting represents a runtime setting stored in the database as a JSON blob.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte
}

// PrimaryKey returns the setting id.
func (s Setting) PrimaryKey() uint64 {
	return s.ID
}
