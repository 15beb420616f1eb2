// Package purgepolicy decides whether users may purge their own datasets.
//
// The decision is read from the database on every call so an administrator
// can change it at runtime. Without a stored value the configured default
// applies.
package purgepolicy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/db/controller/setting"
)

// SettingKey is the key used to store the purge policy in the database.
const SettingKey = "dataset_purge_policy"

// Settings is the stored form of the purge policy.
type Settings struct {
	AllowUserDatasetPurge bool `json:"allowUserDatasetPurge"`
}

// Load loads the purge policy from the database.
func (p *Settings) Load(ctx context.Context, db *gorm.DB) error {
	s, err := setting.Get(ctx, db, SettingKey)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err = json.Unmarshal(s.Value, p); err != nil {
		return fmt.Errorf("failed to decode purge policy: %w", err)
	}

	return nil
}

// Save saves the purge policy to the database.
func (p *Settings) Save(ctx context.Context, db *gorm.DB) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode purge policy: %w", err)
	}

	_, err = setting.Set(ctx, db, SettingKey, data)

	return err //nolint:wrapcheck
}

// Policy answers purge questions from the stored setting or the fallback.
type Policy struct {
	db       *gorm.DB
	fallback bool
}

// New returns a policy reading from db and falling back to allow when nothing is stored.
func New(db *gorm.DB, allow bool) *Policy {
	return &Policy{db: db, fallback: allow}
}

// UserPurgeAllowed reports whether users may purge datasets.
func (p *Policy) UserPurgeAllowed(ctx context.Context) (bool, error) {
	var s Settings

	err := s.Load(ctx, p.db)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return p.fallback, nil
	}

	if err != nil {
		return false, err
	}

	return s.AllowUserDatasetPurge, nil
}

// SetUserPurgeAllowed stores the runtime override.
func (p *Policy) SetUserPurgeAllowed(ctx context.Context, allow bool) error {
	return (&Settings{AllowUserDatasetPurge: allow}).Save(ctx, p.db)
}

// Reset removes the runtime override so the fallback applies again.
func (p *Policy) Reset(ctx context.Context) error {
	err := setting.DeleteByName(ctx, p.db, SettingKey)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil
	}

	return err //nolint:wrapcheck
}
