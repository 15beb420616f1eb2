package handler

import (
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/controller/purgepolicy"
	"github.com/seqvault/seqvault/internal/objectstore"
	"github.com/seqvault/seqvault/internal/security"
	"github.com/seqvault/seqvault/internal/web/session"
)

// Services bundles the dependencies shared by the API handlers.
type Services struct {
	Config      *config.Config
	DB          *gorm.DB
	Users       *auth.Service
	Local       *auth.LocalProvider
	Sessions    *session.Manager
	Codec       *security.IDCodec
	Datasets    *dataset.Manager
	Serializer  *dataset.Serializer
	Filters     *dataset.FilterParser
	PurgePolicy *purgepolicy.Policy
	Files       *objectstore.Store
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, svc *Services) error
}

// NewServices wires the services of the api on top of db, files and the session storage.
func NewServices(cfg *config.Config, db *gorm.DB, files *objectstore.Store, sessions session.Storage) (*Services, error) {
	codec, err := security.NewIDCodec(cfg.Security.IDSecret)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	users := auth.NewService(db,
		auth.WithAdminUsers(cfg.Dataset.AdminUsers...),
		auth.WithCache(cfg.Dataset.PrincipalCacheSize, cfg.Dataset.PrincipalCacheTTL),
	)
	policy := purgepolicy.New(db, cfg.Dataset.AllowUserDatasetPurge)
	datasets := dataset.NewManager(db, users, policy, files)
	serializer := dataset.NewSerializer(codec, datasets.Permissions,
		dataset.WithFileLocator(files),
		dataset.WithExposeDatasetPath(cfg.Dataset.ExposeDatasetPath),
	)

	return &Services{
		Config:      cfg,
		DB:          db,
		Users:       users,
		Local:       auth.NewLocalProvider(db),
		Sessions:    session.NewManager(sessions, cfg.Webserver.Session.ExpiryTime),
		Codec:       codec,
		Datasets:    datasets,
		Serializer:  serializer,
		Filters:     dataset.NewFilterParser(codec),
		PurgePolicy: policy,
		Files:       files,
	}, nil
}
