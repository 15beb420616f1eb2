package login

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/web/handler"
	"github.com/seqvault/seqvault/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = handler.APIPath + "/login"

	// LogoutPath is the path of the logout endpoint.
	LogoutPath = handler.APIPath + "/logout"

	// WhoAmIPath returns the caller.
	WhoAmIPath = handler.APIPath + "/whoami"

	// PasswordPath changes the password of the caller.
	PasswordPath = handler.APIPath + "/password"
)

// Request is the login body.
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordRequest is the body of a password change.
type PasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// Response describes the logged in user.
type Response struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
}

// Service is the login handler service.
type Service struct {
	svc *handler.Services
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, svc *handler.Services) error {
	if app == nil || svc == nil {
		return handler.ErrNilAppOrServices
	}

	s.svc = svc

	app.Post(Path, s.Post)
	app.Post(LogoutPath, s.Logout)
	app.Get(WhoAmIPath, auth.RequireAuthenticated(), s.WhoAmI)
	app.Put(PasswordPath, auth.RequireAuthenticated(), s.ChangePassword)

	return nil
}

// Post checks the credentials and starts a session.
func (s *Service) Post(c fiber.Ctx) error {
	req := new(Request)

	if err := handler.Bind(c, req); err != nil {
		return err //nolint:wrapcheck
	}

	user, err := s.svc.Local.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) ||
			errors.Is(err, auth.ErrInvalidPassword) ||
			errors.Is(err, auth.ErrUserAccountDisabled) {
			log.Info().Str("login", req.Username).Err(err).Msg("login failed")

			return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
		}

		return err
	}

	p, err := s.svc.Users.Principal(c.Context(), user.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	sessionID, err := s.svc.Sessions.Create(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")

		return fiber.NewError(fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.svc.Sessions.Expiry().Seconds()),
		Secure:   !s.svc.Config.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(s.response(p))
}

// Logout ends the session of the caller.
func (s *Service) Logout(c fiber.Ctx) error {
	if sessionID := c.Cookies(session.CookieName); sessionID != "" {
		if err := s.svc.Sessions.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   !s.svc.Config.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// WhoAmI returns the caller.
func (s *Service) WhoAmI(c fiber.Ctx) error {
	return c.JSON(s.response(auth.PrincipalFromContext(c)))
}

// ChangePassword replaces the password of the caller after checking the old one.
func (s *Service) ChangePassword(c fiber.Ctx) error {
	req := new(PasswordRequest)

	if err := handler.Bind(c, req); err != nil {
		return err //nolint:wrapcheck
	}

	p := auth.PrincipalFromContext(c)

	err := s.svc.Local.ChangePassword(c.Context(), p.UserID, req.OldPassword, req.NewPassword)
	if errors.Is(err, auth.ErrInvalidOldPassword) {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", p.UserID).Msg("password changed")

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) response(p *auth.Principal) Response {
	return Response{
		ID:       s.svc.Codec.Encode(p.UserID),
		Username: p.Username,
		Email:    p.Email,
		Admin:    p.IsAdmin(),
	}
}
