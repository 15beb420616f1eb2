package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/daemon"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/web/handler"
)

func init() { //nolint: gochecknoinits
	userCreateCmd.Flags().StringVar(&newUser.Username, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newUser.Email, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&newUser.Password, "password", "", "password")
	userCreateCmd.Flags().BoolVar(&newUserAdmin, "admin", false, "add the user to the administrators role")

	for _, name := range []string{"username", "email", "password"} {
		_ = userCreateCmd.MarkFlagRequired(name)
	}

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	newUser      auth.CreateUserOptions
	newUserAdmin bool

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a local user with its private role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *handler.Services) error {
				user, err := svc.Users.CreateUser(ctx, newUser)
				if err != nil {
					return err //nolint:wrapcheck
				}

				if newUserAdmin {
					role, err := svc.Users.EnsureRole(ctx, daemon.AdminRoleName, models.RoleTypeAdmin)
					if err != nil {
						return err //nolint:wrapcheck
					}

					if err = svc.Users.AddUserToRole(ctx, user.ID, role.ID); err != nil {
						return err //nolint:wrapcheck
					}
				}

				return render(cmd.OutOrStdout(), output, map[string]any{
					"id":       svc.Codec.Encode(user.ID),
					"username": user.Username,
					"email":    user.Email,
					"admin":    newUserAdmin,
				})
			})
		},
	}
)
