package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// LocalsKey is the fiber locals key holding the request's *Principal.
const LocalsKey = "principal"

// SetPrincipal stores p in the request locals.
func SetPrincipal(c fiber.Ctx, p *Principal) {
	c.Locals(LocalsKey, p)
}

// PrincipalFromContext returns the request's principal, nil for anonymous callers.
func PrincipalFromContext(c fiber.Ctx) *Principal {
	p, _ := c.Locals(LocalsKey).(*Principal)

	return p
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated() fiber.Handler {
	return func(c fiber.Ctx) error {
		if PrincipalFromContext(c).IsAnonymous() {
			return fiber.ErrUnauthorized
		}

		return c.Next()
	}
}

// RequireAdmin rejects callers that are not administrators.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		p := PrincipalFromContext(c)
		if p.IsAnonymous() {
			return fiber.ErrUnauthorized
		}

		if !p.IsAdmin() {
			log.Warn().Uint64("user_id", p.UserID).Str("path", c.Path()).Msg("user is not an administrator")

			return fiber.ErrForbidden
		}

		return c.Next()
	}
}
