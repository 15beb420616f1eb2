// Package auth provides the session middleware of the api.
//
// The middleware reads the session cookie, resolves the user of the session to
// an *auth.Principal and stores it in fiber.Locals for the handlers. Requests
// without a valid session continue as anonymous; handlers that need a user
// guard themselves with auth.RequireAuthenticated or auth.RequireAdmin.
//
// Usage:
//
//	app.Use(authmiddleware.New(sessions, users))
package auth
