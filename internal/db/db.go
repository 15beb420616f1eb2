// Package db opens the gorm connection for the configured engine and migrates the schema.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db/dsn"
	"github.com/seqvault/seqvault/internal/db/models"
)

// Models lists every model handled by AutoMigrate, parents first.
func Models() []any {
	return []any{
		&models.Role{},
		&models.User{},
		&models.Group{},
		&models.UserRole{},
		&models.UserGroup{},
		&models.GroupRole{},
		&models.Dataset{},
		&models.DatasetPermission{},
		&models.Setting{},
		&models.Session{},
	}
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg)), nil
	case config.EngineSQLite, "":
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate runs AutoMigrate for all models.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
