package session

import (
	"context"
	"errors"
	"time"

	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db/dsn"
	"github.com/seqvault/seqvault/internal/db/models"
)

// table used by the gofiber storage drivers.
const table = "sessions"

// NewStorage returns the session storage for the configured engine.
func NewStorage(cfg *config.Config, db *gorm.DB) Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         table,
		})
	default:
		return NewGormStorage(db)
	}
}

// GormStorage stores sessions in the api_sessions table.
type GormStorage struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStorage returns a storage backed by db.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db, now: time.Now}
}

// Get returns the value stored under key, nil when missing or expired.
func (s *GormStorage) Get(key string) ([]byte, error) {
	var row models.Session

	err := s.db.WithContext(context.Background()).Where("id = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if row.ExpiresAt != 0 && row.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}

	return row.Data, nil
}

// Set stores val under key. A zero exp never expires.
func (s *GormStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	row := models.Session{ID: key, Data: val}
	if exp > 0 {
		row.ExpiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Clauses(clause.OnConflict{ //nolint:wrapcheck
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&row).Error
}

// Delete removes key.
func (s *GormStorage) Delete(key string) error {
	return s.db.Where("id = ?", key).Delete(&models.Session{}).Error //nolint:wrapcheck
}

// Reset removes every session.
func (s *GormStorage) Reset() error {
	return s.db.Where("1 = 1").Delete(&models.Session{}).Error //nolint:wrapcheck
}

// GC removes expired sessions.
func (s *GormStorage) GC() error {
	return s.db.Where("expires_at <> 0 AND expires_at <= ?", s.now().Unix()).Delete(&models.Session{}).Error //nolint:wrapcheck
}

// Close does nothing, the connection is owned by the caller.
func (s *GormStorage) Close() error {
	return nil
}
