// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"

	"github.com/seqvault/seqvault/internal/config"
)

// Create builds the gorm Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Name,
			cfg.DB.Extras,
		)
	case config.EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Name,
		)
		if cfg.DB.Extras != "" {
			out += " " + cfg.DB.Extras
		}

		return out
	default:
		return cfg.DB.Name
	}
}

// URI builds a connection url for storage drivers that do not accept the gorm form.
// Empty for sqlite.
func URI(cfg *config.Config) string {
	var u url.URL

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		u.Scheme = "mysql"
	case config.EnginePostgres:
		u.Scheme = "postgres"
	default:
		return ""
	}

	u.User = url.UserPassword(cfg.DB.User, cfg.DB.Password)
	u.Host = fmt.Sprintf("%s:%d", cfg.DB.Host, cfg.DB.Port)
	u.Path = "/" + cfg.DB.Name

	return u.String()
}
