package dataset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/models"
)

type expectation struct {
	manage bool
	access bool
}

func assertPermitted(t *testing.T, f *fixture, ds *models.Dataset, who string, p *auth.Principal, want expectation) {
	t.Helper()

	ctx := context.Background()

	manage, err := f.manager.Permissions.Manage.IsPermitted(ctx, ds, p)
	require.NoError(t, err)
	assert.Equal(t, want.manage, manage, "%s manage", who)

	access, err := f.manager.Permissions.Access.IsPermitted(ctx, ds, p)
	require.NoError(t, err)
	assert.Equal(t, want.access, access, "%s access", who)
}

func TestCreateWithNoPermissions(t *testing.T) {
	f := newFixture(t)
	ds := f.create(t, dataset.CreateOptions{})

	manage, access, err := f.manager.Permissions.Get(context.Background(), ds)
	require.NoError(t, err)
	assert.Empty(t, manage)
	assert.Empty(t, access)

	_, user3 := f.user(t, "user3")

	assertPermitted(t, f, ds, "user", user3, expectation{manage: false, access: true})
	assertPermitted(t, f, ds, "admin", f.admin, expectation{manage: true, access: true})
	assertPermitted(t, f, ds, "anonymous", nil, expectation{manage: false, access: true})
}

func TestCreatePublicDataset(t *testing.T) {
	f := newFixture(t)
	_, owner := f.user(t, "user2")

	ds := f.create(t, dataset.CreateOptions{ManageRoles: []uint{owner.PrivateRoleID}})

	manage, access, err := f.manager.Permissions.Get(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, manage, 1)
	assert.Equal(t, owner.PrivateRoleID, manage[0].RoleID)
	assert.Equal(t, models.DatasetActionManage, manage[0].Action)
	assert.Empty(t, access)

	_, user3 := f.user(t, "user3")

	assertPermitted(t, f, ds, "owner", owner, expectation{manage: true, access: true})
	assertPermitted(t, f, ds, "user", user3, expectation{manage: false, access: true})
	assertPermitted(t, f, ds, "admin", f.admin, expectation{manage: true, access: true})
	assertPermitted(t, f, ds, "anonymous", nil, expectation{manage: false, access: true})
}

func TestCreatePrivateDataset(t *testing.T) {
	f := newFixture(t)
	_, owner := f.user(t, "user2")

	ds := f.create(t, dataset.CreateOptions{
		ManageRoles: []uint{owner.PrivateRoleID},
		AccessRoles: []uint{owner.PrivateRoleID},
	})

	manage, access, err := f.manager.Permissions.Get(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, manage, 1)
	require.Len(t, access, 1)
	assert.Equal(t, models.DatasetActionAccess, access[0].Action)

	_, user3 := f.user(t, "user3")

	assertPermitted(t, f, ds, "owner", owner, expectation{manage: true, access: true})
	assertPermitted(t, f, ds, "user", user3, expectation{manage: false, access: false})
	assertPermitted(t, f, ds, "admin", f.admin, expectation{manage: true, access: true})
	assertPermitted(t, f, ds, "anonymous", nil, expectation{manage: false, access: false})
}

func TestAccessThroughGroupRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	member, _ := f.user(t, "member")
	_, outsider := f.user(t, "outsider")

	role, err := f.users.EnsureRole(ctx, "sequencing core", models.RoleTypeGroup)
	require.NoError(t, err)
	group, err := f.users.EnsureGroup(ctx, "core")
	require.NoError(t, err)
	require.NoError(t, f.users.AddGroupRole(ctx, group.ID, role.ID))
	require.NoError(t, f.users.AddUserToGroup(ctx, member.ID, group.ID))

	ds := f.create(t, dataset.CreateOptions{AccessRoles: []uint{role.ID}})

	p, err := f.users.Principal(ctx, member.ID)
	require.NoError(t, err)

	assertPermitted(t, f, ds, "group member", p, expectation{manage: false, access: true})
	assertPermitted(t, f, ds, "outsider", outsider, expectation{manage: false, access: false})
}

func TestAnyGrantedRoleIsEnough(t *testing.T) {
	f := newFixture(t)
	_, alice := f.user(t, "alice")
	_, bob := f.user(t, "bob")
	_, carol := f.user(t, "carol")

	ds := f.create(t, dataset.CreateOptions{AccessRoles: []uint{alice.PrivateRoleID, bob.PrivateRoleID}})

	assertPermitted(t, f, ds, "alice", alice, expectation{access: true})
	assertPermitted(t, f, ds, "bob", bob, expectation{access: true})
	assertPermitted(t, f, ds, "carol", carol, expectation{access: false})
}

func TestGrantRevokeSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, alicePrincipal := f.user(t, "alice")
	_, bob := f.user(t, "bob")

	ds := f.create(t, dataset.CreateOptions{})
	manage := f.manager.Permissions.Manage

	grant, err := manage.Grant(ctx, ds, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alicePrincipal.PrivateRoleID, grant.RoleID)

	again, err := manage.Grant(ctx, ds, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, grant.ID, again.ID, "granting twice keeps one grant")

	created, err := manage.GrantRoles(ctx, ds, bob.PrivateRoleID, bob.PrivateRoleID, alicePrincipal.PrivateRoleID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, bob.PrivateRoleID, created[0].RoleID)

	roles, err := manage.RoleIDs(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, []uint{alicePrincipal.PrivateRoleID, bob.PrivateRoleID}, roles)

	require.NoError(t, manage.Revoke(ctx, ds, alice.ID))

	roles, err = manage.RoleIDs(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.PrivateRoleID}, roles)

	_, err = manage.Set(ctx, ds, alicePrincipal.PrivateRoleID)
	require.NoError(t, err)

	roles, err = manage.RoleIDs(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, []uint{alicePrincipal.PrivateRoleID}, roles)

	// access grants are untouched by manage changes
	access, err := f.manager.Permissions.Access.ByDataset(ctx, ds)
	require.NoError(t, err)
	assert.Empty(t, access)

	_, err = manage.Set(ctx, ds)
	require.NoError(t, err)

	assertPermitted(t, f, ds, "alice", alicePrincipal, expectation{manage: false, access: true})
}

func TestGrantUnknownUser(t *testing.T) {
	f := newFixture(t)
	ds := f.create(t, dataset.CreateOptions{})

	_, err := f.manager.Permissions.Access.Grant(context.Background(), ds, 4242)
	require.ErrorIs(t, err, auth.ErrPrivateRoleNotFound)
}

func TestGrantsAreRemovedWithDataset(t *testing.T) {
	f := newFixture(t)
	_, alice := f.user(t, "alice")

	ds := f.create(t, dataset.CreateOptions{AccessRoles: []uint{alice.PrivateRoleID}})
	require.NoError(t, f.db.Delete(&models.Dataset{}, ds.ID).Error)

	var count int64
	require.NoError(t, f.db.Model(&models.DatasetPermission{}).Where("dataset_id = ?", ds.ID).Count(&count).Error)
	assert.Zero(t, count)
}
