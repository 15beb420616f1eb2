// Package web serves the json api over fiber.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	accesslog "github.com/seqvault/seqvault/internal/logger/adapter/fiber"
	"github.com/seqvault/seqvault/internal/web/handler"
	"github.com/seqvault/seqvault/internal/web/handler/admin/settings/purgepolicy"
	"github.com/seqvault/seqvault/internal/web/handler/dataset"
	"github.com/seqvault/seqvault/internal/web/handler/login"
	authmiddleware "github.com/seqvault/seqvault/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"

	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	svc          *handler.Services
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it stops.
func (s *Service) Start(addr string) error {
	err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("fiber listen error: %w", err)
	}

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the server. Unless fast shutdown is set the check alive endpoint
// fails for Webserver.ShutDownTime seconds first so load balancers drain the instance.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.svc.Config.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.svc.Config.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the check alive endpoint answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates a new web service serving the handlers on top of svc.
func New(svc *handler.Services, fastShutDown bool) (*Service, error) {
	if svc == nil || svc.Config == nil {
		return nil, handler.ErrNilAppOrServices
	}

	cfg := svc.Config

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192, //nolint:mnd
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			BodyLimit:      64 << 20, //nolint:mnd
			ErrorHandler:   ErrorHandler,
		},
	)

	service := &Service{
		App:          app,
		svc:          svc,
		fastShutDown: fastShutDown,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, func(c fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// resolve the session principal before any handler runs
	app.Use(authmiddleware.New(svc.Sessions, svc.Users))

	handlers := []handler.Service{
		&login.Handler,
		&dataset.Handler,
		&purgepolicy.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, svc); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return service, nil
}
