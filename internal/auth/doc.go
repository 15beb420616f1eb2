// Package auth resolves who is calling and which roles they hold.
//
// Every user owns a private role, created together with the user. A user's
// effective role set is the union of the roles assigned directly through
// UserRole and the roles mapped to each of the user's groups through GroupRole.
//
// # Principals
//
// Service.Principal loads a user and precomputes the role set into a
// Principal. Results are cached in an expirable LRU; membership changes made
// through the Service invalidate the affected entries.
//
// A user is an administrator when their email is listed in the configured
// admin users or when they hold a role of type admin.
//
// # Middleware
//
// RequireAuthenticated and RequireAdmin guard fiber routes using the principal
// stored in the request locals by the web session middleware.
//
// Example usage:
//
//	authService := auth.NewService(db, auth.WithAdminUsers(cfg.Dataset.AdminUsers...))
//
//	user, err := auth.NewLocalProvider(db).Authenticate(ctx, username, password)
//	principal, err := authService.Principal(ctx, user.ID)
//
//	app.Put("/api/admin/settings/purge-policy", auth.RequireAdmin(), handler)
package auth
