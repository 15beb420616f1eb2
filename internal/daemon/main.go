// Package daemon wires the database, the object store and the api into a running service.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db"
	"github.com/seqvault/seqvault/internal/objectstore"
	"github.com/seqvault/seqvault/internal/web"
	"github.com/seqvault/seqvault/internal/web/handler"
	"github.com/seqvault/seqvault/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	services   *handler.Services
	webService *web.Service
}

// Start serves the api until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Msg("starting http server")

	errc := make(chan error, 1)

	go func() {
		errc <- d.webService.Start(addr)
	}()

	go d.webService.WaitShutdown()

	err := <-errc

	if cerr := d.services.Sessions.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to close session storage")
	}

	return err
}

// Services returns the wired services.
func (d *Daemon) Services() *handler.Services {
	return d.services
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	svc, conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = seed(context.Background(), cfg, svc); err != nil {
		return nil, err
	}

	if gc, ok := svc.Sessions.Storage().(*session.GormStorage); ok {
		if err = gc.GC(); err != nil {
			log.Warn().Err(err).Msg("failed to remove expired sessions")
		}
	}

	ws, err := web.New(svc, cfg.DevMode)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &Daemon{
		cfg:        cfg,
		db:         conn,
		services:   svc,
		webService: ws,
	}, nil
}

// Open connects the database and the object store and wires the services
// without starting the web server. The CLI uses it directly.
func Open(cfg *config.Config) (*handler.Services, *gorm.DB, error) {
	if cfg == nil {
		return nil, nil, ErrConfigNil
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	files, err := objectstore.NewDisk(cfg.Dataset.FilePath)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	svc, err := handler.NewServices(cfg, conn, files, session.NewStorage(cfg, conn))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	return svc, conn, nil
}
