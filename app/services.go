package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/daemon"
	"github.com/seqvault/seqvault/internal/web/handler"
)

// operator is the principal of CLI commands run without --as.
var operator = &auth.Principal{Username: "seqvault-cli", Admin: true} //nolint:gochecknoglobals

// withServices reads the configuration, opens the services and runs fn.
func withServices(ctx context.Context, fn func(ctx context.Context, svc *handler.Services) error) error {
	if err := readConfig(); err != nil {
		return err
	}

	svc, conn, err := daemon.Open(&cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer func() {
		if err := svc.Sessions.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session storage")
		}

		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(ctx, svc)
}

// principal resolves the user the command acts as. An empty email is the operator.
func principal(ctx context.Context, svc *handler.Services, email string) (*auth.Principal, error) {
	if email == "" {
		return operator, nil
	}

	user, err := svc.Users.UserByEmail(ctx, email)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return svc.Users.Principal(ctx, user.ID) //nolint:wrapcheck
}
