package dataset_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/testdb"
	"github.com/seqvault/seqvault/internal/objectstore"
	"github.com/seqvault/seqvault/internal/security"
)

const adminEmail = "admin@example.org"

type staticPolicy struct {
	allow bool
}

func (p *staticPolicy) UserPurgeAllowed(context.Context) (bool, error) {
	return p.allow, nil
}

type fixture struct {
	db      *gorm.DB
	users   *auth.Service
	codec   *security.IDCodec
	fs      afero.Fs
	files   *objectstore.Store
	policy  *staticPolicy
	manager *dataset.Manager
	admin   *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.Open(t)
	codec, err := security.NewIDCodec("test-secret")
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	f := &fixture{
		db:     db,
		users:  auth.NewService(db, auth.WithAdminUsers(adminEmail)),
		codec:  codec,
		fs:     fs,
		files:  objectstore.New(fs, "/objects"),
		policy: &staticPolicy{allow: true},
	}

	f.manager = dataset.NewManager(db, f.users, f.policy, f.files)
	_, f.admin = f.user(t, "admin")

	return f
}

// user creates a user called name with email name@example.org and returns its principal.
func (f *fixture) user(t *testing.T, name string) (*models.User, *auth.Principal) {
	t.Helper()

	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, auth.CreateUserOptions{
		Username: name,
		Email:    name + "@example.org",
		Password: "password-" + name,
	})
	require.NoError(t, err)

	p, err := f.users.Principal(ctx, u.ID)
	require.NoError(t, err)

	return u, p
}

func (f *fixture) create(t *testing.T, opts dataset.CreateOptions) *models.Dataset {
	t.Helper()

	ds, err := f.manager.Create(context.Background(), opts)
	require.NoError(t, err)

	return ds
}

func (f *fixture) reload(t *testing.T, ds *models.Dataset) *models.Dataset {
	t.Helper()

	fresh, err := f.manager.ByID(context.Background(), ds.ID)
	require.NoError(t, err)

	return fresh
}
