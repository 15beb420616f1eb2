// Package purgepolicy serves the runtime override of the user purge policy.
package purgepolicy

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/web/handler"
)

// Path is the path of the purge policy settings.
const Path = handler.APIPath + "/admin/settings/purge-policy"

// Request changes the purge policy.
type Request struct {
	AllowUserDatasetPurge *bool `json:"allowUserDatasetPurge" validate:"required"`
}

// Response reports the effective purge policy.
type Response struct {
	AllowUserDatasetPurge bool `json:"allowUserDatasetPurge"`
}

// Service is the purge policy settings handler service.
type Service struct {
	svc *handler.Services
}

// Handler is the purge policy settings handler.
var Handler = Service{}

// Init initializes the purge policy settings handler.
func (s *Service) Init(app *fiber.App, svc *handler.Services) error {
	if app == nil || svc == nil {
		return handler.ErrNilAppOrServices
	}

	s.svc = svc

	app.Get(Path, auth.RequireAdmin(), s.Get)
	app.Put(Path, auth.RequireAdmin(), s.Put)
	app.Delete(Path, auth.RequireAdmin(), s.Delete)

	return nil
}

// Get returns the effective purge policy.
func (s *Service) Get(c fiber.Ctx) error {
	return s.respond(c)
}

// Put stores the purge policy override.
func (s *Service) Put(c fiber.Ctx) error {
	req := new(Request)
	if err := handler.Bind(c, req); err != nil {
		return err //nolint:wrapcheck
	}

	if err := s.svc.PurgePolicy.SetUserPurgeAllowed(c.Context(), *req.AllowUserDatasetPurge); err != nil {
		log.Error().Err(err).Msg("failed to save purge policy")

		return err //nolint:wrapcheck
	}

	log.Info().
		Bool("allow_user_dataset_purge", *req.AllowUserDatasetPurge).
		Uint64("by", auth.PrincipalFromContext(c).UserID).
		Msg("purge policy saved")

	return s.respond(c)
}

// Delete drops the override so the configured default applies again.
func (s *Service) Delete(c fiber.Ctx) error {
	if err := s.svc.PurgePolicy.Reset(c.Context()); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c)
}

func (s *Service) respond(c fiber.Ctx) error {
	allowed, err := s.svc.PurgePolicy.UserPurgeAllowed(c.Context())
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(Response{AllowUserDatasetPurge: allowed})
}
