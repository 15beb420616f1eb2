package config

import (
	"time"

	"github.com/seqvault/seqvault/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Security  Security
	Dataset   Dataset
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Port           int     `validate:"required,min=1,max=65535"` // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  `validate:"required,url"` // base url for the webserver
	Session        Session // session settings
}

// Security holds settings for the id codec.
type Security struct {
	// IDSecret keys the blowfish cipher used to encode database ids.
	IDSecret string `validate:"required,min=4,max=56"`
}

// Dataset holds the dataset management policy settings.
type Dataset struct {
	// AllowUserDatasetPurge is the default for the purge policy, overridable at runtime.
	AllowUserDatasetPurge bool
	// ExposeDatasetPath exposes file_name and extra_files_path to non admin users.
	ExposeDatasetPath bool
	// FilePath is the root directory of the dataset object store.
	FilePath string
	// AdminUsers lists the emails of users treated as administrators.
	AdminUsers []string
	// PrincipalCacheSize is the number of resolved principals kept in memory.
	PrincipalCacheSize int
	// PrincipalCacheTTL is how long a resolved principal stays valid.
	PrincipalCacheTTL time.Duration
}
