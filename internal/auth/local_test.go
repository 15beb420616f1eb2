package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/db/testdb"
)

func TestAuthenticate(t *testing.T) {
	db := testdb.Open(t)
	s := auth.NewService(db)
	p := auth.NewLocalProvider(db)

	createUser(t, s, "alice")

	_, err := s.CreateUser(context.Background(), auth.CreateUserOptions{
		Username: "frozen",
		Email:    "frozen@example.org",
		Password: "secret-frozen",
		Inactive: true,
	})
	require.NoError(t, err)

	testCases := []struct {
		name          string
		login         string
		password      string
		expectedError error
	}{
		{name: "by username", login: "alice", password: "secret-alice"},
		{name: "by email", login: "alice@example.org", password: "secret-alice"},
		{name: "wrong password", login: "alice", password: "nope", expectedError: auth.ErrInvalidPassword},
		{name: "unknown user", login: "mallory", password: "x", expectedError: auth.ErrUserNotFound},
		{name: "disabled user", login: "frozen", password: "secret-frozen", expectedError: auth.ErrUserAccountDisabled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := p.Authenticate(context.Background(), tc.login, tc.password)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, user)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
		})
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	p := auth.NewLocalProvider(db)
	alice := createUser(t, auth.NewService(db), "alice")

	require.ErrorIs(t, p.ChangePassword(ctx, alice.ID, "wrong", "new"), auth.ErrInvalidOldPassword)
	require.ErrorIs(t, p.ChangePassword(ctx, 999, "x", "y"), auth.ErrUserNotFound)
	require.NoError(t, p.ChangePassword(ctx, alice.ID, "secret-alice", "brand-new"))

	_, err := p.Authenticate(ctx, "alice", "brand-new")
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, "alice", "secret-alice")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)
}
