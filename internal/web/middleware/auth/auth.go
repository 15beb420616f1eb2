package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/web/session"
)

// SessionReader resolves session ids.
type SessionReader interface {
	Read(sessionID string) (*session.Data, error)
}

// PrincipalResolver resolves user ids to principals.
type PrincipalResolver interface {
	Principal(ctx context.Context, userID uint64) (*auth.Principal, error)
}

// New returns the middleware attaching the principal of the session cookie to the request.
func New(sessions SessionReader, users PrincipalResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Next()
		}

		data, err := sessions.Read(sessionID)
		if err != nil {
			if !errors.Is(err, session.ErrSessionNotFound) {
				log.Error().Err(err).Msg("failed to read session")
			}

			return c.Next()
		}

		p, err := users.Principal(c.Context(), data.UserID)
		if err != nil {
			// user removed or disabled after login
			if !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrUserAccountDisabled) {
				log.Error().Err(err).Uint64("user_id", data.UserID).Msg("failed to resolve session user")
			}

			return c.Next()
		}

		auth.SetPrincipal(c, p)

		return c.Next()
	}
}
