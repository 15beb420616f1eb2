package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/testdb"
)

func createUser(t *testing.T, s *auth.Service, name string) *models.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), auth.CreateUserOptions{
		Username: name,
		Email:    name + "@example.org",
		Password: "secret-" + name,
	})
	require.NoError(t, err)

	return user
}

func TestCreateUserCreatesPrivateRole(t *testing.T) {
	ctx := context.Background()
	s := auth.NewService(testdb.Open(t))

	user := createUser(t, s, "alice")
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret-alice", user.Password)

	role, err := s.PrivateRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTypePrivate, role.Type)
	assert.Equal(t, "alice@example.org", role.Name)

	roles, err := s.RoleIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{role.ID}, roles)
}

func TestCreateUserDuplicate(t *testing.T) {
	s := auth.NewService(testdb.Open(t))
	createUser(t, s, "alice")

	_, err := s.CreateUser(context.Background(), auth.CreateUserOptions{
		Username: "alice",
		Email:    "other@example.org",
		Password: "x",
	})
	require.ErrorIs(t, err, auth.ErrUserNameOrEmailExists)
}

func TestPrincipalRoles(t *testing.T) {
	ctx := context.Background()
	s := auth.NewService(testdb.Open(t))

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	private, err := s.PrivateRole(ctx, alice.ID)
	require.NoError(t, err)

	shared, err := s.EnsureRole(ctx, "sequencing", models.RoleTypeUser)
	require.NoError(t, err)
	viaGroup, err := s.EnsureRole(ctx, "lab members", models.RoleTypeGroup)
	require.NoError(t, err)
	group, err := s.EnsureGroup(ctx, "lab")
	require.NoError(t, err)

	require.NoError(t, s.AddUserToRole(ctx, alice.ID, shared.ID))
	require.NoError(t, s.AddUserToGroup(ctx, alice.ID, group.ID))
	require.NoError(t, s.AddGroupRole(ctx, group.ID, viaGroup.ID))
	// adding twice is a no-op
	require.NoError(t, s.AddUserToRole(ctx, alice.ID, shared.ID))

	p, err := s.Principal(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, p.Email)
	assert.Equal(t, private.ID, p.PrivateRoleID)
	assert.False(t, p.IsAdmin())
	assert.ElementsMatch(t, []uint{private.ID, shared.ID, viaGroup.ID}, p.RoleIDs())
	assert.True(t, p.HasAnyRole(999, viaGroup.ID))
	assert.False(t, p.HasAnyRole(999))

	pb, err := s.Principal(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, pb.HasRole(shared.ID))

	groups, err := s.GetUserGroups(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "lab", groups[0].Name)
}

func TestPrincipalAdmin(t *testing.T) {
	ctx := context.Background()
	s := auth.NewService(testdb.Open(t), auth.WithAdminUsers("root@example.org"))

	root := createUser(t, s, "root")
	carol := createUser(t, s, "carol")
	dave := createUser(t, s, "dave")

	admins, err := s.EnsureRole(ctx, "administrators", models.RoleTypeAdmin)
	require.NoError(t, err)
	assert.True(t, admins.IsSystem)
	require.NoError(t, s.AddUserToRole(ctx, carol.ID, admins.ID))

	for _, tc := range []struct {
		user  *models.User
		admin bool
	}{
		{user: root, admin: true},
		{user: carol, admin: true},
		{user: dave, admin: false},
	} {
		p, err := s.Principal(ctx, tc.user.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.admin, p.IsAdmin(), tc.user.Username)
	}
}

func TestPrincipalCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	s := auth.NewService(testdb.Open(t), auth.WithCache(8, time.Hour))

	alice := createUser(t, s, "alice")
	role, err := s.EnsureRole(ctx, "reviewers", models.RoleTypeUser)
	require.NoError(t, err)

	before, err := s.Principal(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, before.HasRole(role.ID))

	again, err := s.Principal(ctx, alice.ID)
	require.NoError(t, err)
	assert.Same(t, before, again)

	require.NoError(t, s.AddUserToRole(ctx, alice.ID, role.ID))

	after, err := s.Principal(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, after.HasRole(role.ID))
}

func TestPrincipalUnknownUser(t *testing.T) {
	_, err := auth.NewService(testdb.Open(t)).Principal(context.Background(), 42)
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestPrincipalDisabledUser(t *testing.T) {
	ctx := context.Background()
	s := auth.NewService(testdb.Open(t))

	bob, err := s.CreateUser(ctx, auth.CreateUserOptions{
		Username: "bob",
		Email:    "bob@example.org",
		Password: "password-bob",
		Inactive: true,
	})
	require.NoError(t, err)

	_, err = s.Principal(ctx, bob.ID)
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)
}

func TestPrivateRoleMissing(t *testing.T) {
	_, err := auth.NewService(testdb.Open(t)).PrivateRole(context.Background(), 42)
	require.ErrorIs(t, err, auth.ErrPrivateRoleNotFound)
}

func TestUserByEmail(t *testing.T) {
	s := auth.NewService(testdb.Open(t))
	alice := createUser(t, s, "alice")

	got, err := s.UserByEmail(context.Background(), "alice@example.org")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.UserByEmail(context.Background(), "nobody@example.org")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestAnonymousPrincipal(t *testing.T) {
	var p *auth.Principal

	assert.True(t, p.IsAnonymous())
	assert.False(t, p.IsAdmin())
	assert.False(t, p.HasRole(1))
	assert.False(t, p.HasAnyRole(1, 2))
	assert.Nil(t, p.RoleIDs())
}
