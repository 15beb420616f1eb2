package dataset

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/store"
)

// PrivateRoles resolves the private role of a user.
type PrivateRoles interface {
	PrivateRole(ctx context.Context, userID uint64) (*models.Role, error)
}

// RBACPermission grants and checks one action on datasets.
type RBACPermission struct {
	action models.DatasetAction
	grants *store.Store[models.DatasetPermission]
	roles  PrivateRoles
	// ungranted decides for non-admin principals when the dataset has no grants of action.
	ungranted func(p *auth.Principal) bool
}

// Permissions bundles the manage and access permissions of datasets.
type Permissions struct {
	Manage *RBACPermission
	Access *RBACPermission
}

// NewPermissions returns the dataset permissions stored in db.
func NewPermissions(db *gorm.DB, roles PrivateRoles) *Permissions {
	grants := store.New[models.DatasetPermission](db)

	return &Permissions{
		Manage: &RBACPermission{
			action:    models.DatasetActionManage,
			grants:    grants,
			roles:     roles,
			ungranted: func(*auth.Principal) bool { return false },
		},
		Access: &RBACPermission{
			action:    models.DatasetActionAccess,
			grants:    grants,
			roles:     roles,
			ungranted: func(*auth.Principal) bool { return true },
		},
	}
}

// WithTx returns permissions bound to the transaction tx.
func (p *Permissions) WithTx(tx *gorm.DB) *Permissions {
	return &Permissions{Manage: p.Manage.WithTx(tx), Access: p.Access.WithTx(tx)}
}

// Get returns the manage and access grants of ds, each ordered by id.
func (p *Permissions) Get(ctx context.Context, ds *models.Dataset) (manage, access []models.DatasetPermission, err error) {
	if manage, err = p.Manage.ByDataset(ctx, ds); err != nil {
		return nil, nil, err
	}

	if access, err = p.Access.ByDataset(ctx, ds); err != nil {
		return nil, nil, err
	}

	return manage, access, nil
}

// Action returns the action this permission grants.
func (r *RBACPermission) Action() models.DatasetAction {
	return r.action
}

// WithTx returns a copy bound to the transaction tx.
func (r *RBACPermission) WithTx(tx *gorm.DB) *RBACPermission {
	c := *r
	c.grants = r.grants.WithTx(tx)

	return &c
}

// ByDataset returns the grants of this action on ds ordered by id.
func (r *RBACPermission) ByDataset(ctx context.Context, ds *models.Dataset) ([]models.DatasetPermission, error) {
	grants, err := r.grants.List(ctx, store.ListOptions{Filters: r.filters(ds)})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s permissions of dataset %d: %w", r.action, ds.ID, err)
	}

	return grants, nil
}

// RoleIDs returns the ids of the roles granted this action on ds.
func (r *RBACPermission) RoleIDs(ctx context.Context, ds *models.Dataset) ([]uint, error) {
	grants, err := r.ByDataset(ctx, ds)
	if err != nil {
		return nil, err
	}

	return lo.Map(grants, func(g models.DatasetPermission, _ int) uint { return g.RoleID }), nil
}

// Grant grants this action on ds to the private role of the user.
func (r *RBACPermission) Grant(ctx context.Context, ds *models.Dataset, userID uint64) (*models.DatasetPermission, error) {
	role, err := r.roles.PrivateRole(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	granted, err := r.GrantRoles(ctx, ds, role.ID)
	if err != nil {
		return nil, err
	}

	if len(granted) == 0 {
		// already granted
		return r.grantFor(ctx, ds, role.ID)
	}

	return &granted[0], nil
}

// GrantRoles grants this action on ds to roleIDs. Roles already granted are skipped,
// the returned slice holds the new grants only.
func (r *RBACPermission) GrantRoles(ctx context.Context, ds *models.Dataset, roleIDs ...uint) ([]models.DatasetPermission, error) {
	existing, err := r.RoleIDs(ctx, ds)
	if err != nil {
		return nil, err
	}

	created := make([]models.DatasetPermission, 0, len(roleIDs))

	for _, roleID := range lo.Without(lo.Uniq(roleIDs), existing...) {
		grant := models.DatasetPermission{DatasetID: ds.ID, Action: r.action, RoleID: roleID}
		if err = r.grants.Create(ctx, &grant); err != nil {
			return nil, fmt.Errorf("failed to grant %s on dataset %d to role %d: %w", r.action, ds.ID, roleID, err)
		}

		created = append(created, grant)
	}

	return created, nil
}

// Revoke removes the grant of this action on ds from the private role of the user.
func (r *RBACPermission) Revoke(ctx context.Context, ds *models.Dataset, userID uint64) error {
	role, err := r.roles.PrivateRole(ctx, userID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return r.revokeRoles(ctx, ds, role.ID)
}

// Set replaces every grant of this action on ds with grants to roleIDs.
func (r *RBACPermission) Set(ctx context.Context, ds *models.Dataset, roleIDs ...uint) ([]models.DatasetPermission, error) {
	var out []models.DatasetPermission

	err := r.grants.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inTx := r.WithTx(tx)

		if err := inTx.revokeRoles(ctx, ds); err != nil {
			return err
		}

		var err error

		out, err = inTx.GrantRoles(ctx, ds, roleIDs...)

		return err
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return out, nil
}

// IsPermitted reports whether p may perform this action on ds. A nil p is anonymous.
func (r *RBACPermission) IsPermitted(ctx context.Context, ds *models.Dataset, p *auth.Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}

	roleIDs, err := r.RoleIDs(ctx, ds)
	if err != nil {
		return false, err
	}

	if len(roleIDs) == 0 {
		return r.ungranted(p), nil
	}

	return p.HasAnyRole(roleIDs...), nil
}

func (r *RBACPermission) filters(ds *models.Dataset) []store.Filter {
	return []store.Filter{
		store.Eq("dataset_id", ds.ID),
		store.Eq("action", string(r.action)),
	}
}

func (r *RBACPermission) grantFor(ctx context.Context, ds *models.Dataset, roleID uint) (*models.DatasetPermission, error) {
	grant, err := r.grants.One(ctx, append(r.filters(ds), store.Eq("role_id", roleID))...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s permission of dataset %d: %w", r.action, ds.ID, err)
	}

	return grant, nil
}

// revokeRoles deletes the grants of this action on ds to roleIDs, or all of them when none are given.
func (r *RBACPermission) revokeRoles(ctx context.Context, ds *models.Dataset, roleIDs ...uint) error {
	q := r.grants.DB().WithContext(ctx).
		Where("dataset_id = ? AND action = ?", ds.ID, string(r.action))

	if len(roleIDs) > 0 {
		q = q.Where("role_id IN ?", roleIDs)
	}

	if err := q.Delete(&models.DatasetPermission{}).Error; err != nil {
		return fmt.Errorf("failed to revoke %s on dataset %d: %w", r.action, ds.ID, err)
	}

	return nil
}
