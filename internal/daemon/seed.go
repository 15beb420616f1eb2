package daemon

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/config"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/web/handler"
)

const (
	// EnvAdminPassword sets the password of the seeded admin user.
	EnvAdminPassword = "SEQVAULT_ADMIN_PASSWORD"

	// AdminRoleName is the admin role created at startup.
	AdminRoleName = "administrators"

	adminUserName    = "admin"
	defaultAdminMail = "admin@seqvault.local"
)

// seed creates the admin role and, on an empty user table, an admin user.
func seed(ctx context.Context, cfg *config.Config, svc *handler.Services) error {
	role, err := svc.Users.EnsureRole(ctx, AdminRoleName, models.RoleTypeAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed admin role: %w", err)
	}

	var count int64
	if err = svc.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	email := defaultAdminMail
	if len(cfg.Dataset.AdminUsers) > 0 {
		email = cfg.Dataset.AdminUsers[0]
	}

	password := os.Getenv(EnvAdminPassword)
	generated := password == ""

	if generated {
		password = uuid.NewString()
	}

	user, err := svc.Users.CreateUser(ctx, auth.CreateUserOptions{
		Username: adminUserName,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err = svc.Users.AddUserToRole(ctx, user.ID, role.ID); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	event := log.Warn().Str("username", adminUserName).Str("email", email)
	if generated {
		event = event.Str("password", password)
	}

	event.Msg("created initial admin user, change its password")

	return nil
}
