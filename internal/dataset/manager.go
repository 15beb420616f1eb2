package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/store"
)

// PurgePolicy decides whether users may purge datasets.
type PurgePolicy interface {
	UserPurgeAllowed(ctx context.Context) (bool, error)
}

// FileStore holds dataset content.
type FileStore interface {
	ID() string
	Remove(id uint64) error
}

// CreateOptions describes a new dataset. Without roles the dataset is public.
type CreateOptions struct {
	ManageRoles []uint
	AccessRoles []uint
	// State defaults to new.
	State models.DatasetState
}

// Manager creates, queries and changes the lifecycle of datasets.
type Manager struct {
	db          *gorm.DB
	datasets    *store.Store[models.Dataset]
	Permissions *Permissions
	policy      PurgePolicy
	files       FileStore
}

// NewManager returns a manager over db. files may be nil when content is kept elsewhere.
func NewManager(db *gorm.DB, roles PrivateRoles, policy PurgePolicy, files FileStore) *Manager {
	return &Manager{
		db:          db,
		datasets:    store.New[models.Dataset](db),
		Permissions: NewPermissions(db, roles),
		policy:      policy,
		files:       files,
	}
}

// Create inserts a dataset and its grants in one transaction.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*models.Dataset, error) {
	ds := models.NewDataset()

	if opts.State != "" {
		if !opts.State.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, opts.State)
		}

		ds.State = opts.State
	}

	if m.files != nil {
		ds.ObjectStoreID = m.files.ID()
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.datasets.WithTx(tx).Create(ctx, ds); err != nil {
			return err //nolint:wrapcheck
		}

		perms := m.Permissions.WithTx(tx)

		if _, err := perms.Manage.GrantRoles(ctx, ds, opts.ManageRoles...); err != nil {
			return err
		}

		_, err := perms.Access.GrantRoles(ctx, ds, opts.AccessRoles...)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	operations.WithLabelValues(opCreate).Inc()
	log.Debug().Uint64("dataset_id", ds.ID).Str("uuid", ds.UUID).Msg("dataset created")

	return ds, nil
}

// Delete marks ds as deleted. Deleting twice is harmless.
func (m *Manager) Delete(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	if err := m.update(ctx, ds, map[string]any{"deleted": true}); err != nil {
		return nil, err
	}

	ds.Deleted = true

	operations.WithLabelValues(opDelete).Inc()

	return ds, nil
}

// Undelete clears the deleted flag of ds. Purged datasets cannot come back.
func (m *Manager) Undelete(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	if ds.Purged {
		return nil, fmt.Errorf("%w: %d", ErrPurged, ds.ID)
	}

	result := m.db.WithContext(ctx).Model(&models.Dataset{}).
		Where("id = ? AND purged = ?", ds.ID, false).
		Update("deleted", false)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to undelete dataset %d: %w", ds.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		// either gone or purged concurrently
		current, err := m.datasets.ByID(ctx, ds.ID)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		if current.Purged {
			ds.Deleted, ds.Purged = current.Deleted, current.Purged

			return nil, fmt.Errorf("%w: %d", ErrPurged, ds.ID)
		}
	}

	ds.Deleted = false

	operations.WithLabelValues(opUndelete).Inc()

	return ds, nil
}

// ErrorUnlessPurgeAllowed returns ErrConfigDenied unless users may purge datasets.
func (m *Manager) ErrorUnlessPurgeAllowed(ctx context.Context) error {
	if m.policy == nil {
		return ErrConfigDenied
	}

	allowed, err := m.policy.UserPurgeAllowed(ctx)
	if err != nil {
		return fmt.Errorf("failed to read purge policy: %w", err)
	}

	if !allowed {
		return ErrConfigDenied
	}

	return nil
}

// Purge marks ds as deleted and purged, then removes its content. Purging a
// purged dataset is a no-op. Content of datasets that are not purgable is kept.
// A failing removal is logged and does not undo the purge.
func (m *Manager) Purge(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	if err := m.ErrorUnlessPurgeAllowed(ctx); err != nil {
		if errors.Is(err, ErrConfigDenied) {
			operations.WithLabelValues(opDenied).Inc()
		}

		return nil, err
	}

	if ds.Purged {
		return ds, nil
	}

	if err := m.update(ctx, ds, map[string]any{"deleted": true, "purged": true}); err != nil {
		return nil, err
	}

	// content goes only after the flags are stored
	if m.files != nil && ds.Purgable && ds.ExternalFilename == "" {
		if err := m.files.Remove(ds.ID); err != nil {
			log.Error().Err(err).Uint64("dataset_id", ds.ID).Msg("failed to remove content of purged dataset")
		}
	}

	ds.Deleted, ds.Purged = true, true

	operations.WithLabelValues(opPurge).Inc()
	log.Info().Uint64("dataset_id", ds.ID).Msg("dataset purged")

	return ds, nil
}

// SetContent records the sizes of the content stored for ds and marks it ok.
func (m *Manager) SetContent(ctx context.Context, ds *models.Dataset, fileSize, totalSize int64) (*models.Dataset, error) {
	if ds.Purged {
		return nil, fmt.Errorf("%w: %d", ErrPurged, ds.ID)
	}

	if ds.Deleted {
		return nil, fmt.Errorf("%w: dataset %d is deleted", ErrInvalidState, ds.ID)
	}

	values := map[string]any{
		"file_size":  fileSize,
		"total_size": totalSize,
		"state":      string(models.DatasetStateOK),
	}
	if err := m.update(ctx, ds, values); err != nil {
		return nil, err
	}

	ds.FileSize, ds.TotalSize, ds.State = &fileSize, &totalSize, models.DatasetStateOK

	return ds, nil
}

// List returns datasets matching opts.
func (m *Manager) List(ctx context.Context, opts store.ListOptions) ([]models.Dataset, error) {
	return m.datasets.List(ctx, opts) //nolint:wrapcheck
}

// ListAccessible returns the datasets matching opts that p may access.
func (m *Manager) ListAccessible(ctx context.Context, p *auth.Principal, opts store.ListOptions) ([]models.Dataset, error) {
	if !p.IsAdmin() {
		opts.Filters = append(append([]store.Filter{}, opts.Filters...), accessibleBy(p))
	}

	return m.datasets.List(ctx, opts) //nolint:wrapcheck
}

// One returns the only dataset matching filters.
func (m *Manager) One(ctx context.Context, filters ...store.Filter) (*models.Dataset, error) {
	return m.datasets.One(ctx, filters...) //nolint:wrapcheck
}

// ByID returns the dataset with the given id.
func (m *Manager) ByID(ctx context.Context, id uint64) (*models.Dataset, error) {
	return m.datasets.ByID(ctx, id) //nolint:wrapcheck
}

// ByIDs returns the datasets with the given ids in the order of ids.
func (m *Manager) ByIDs(ctx context.Context, ids []uint64) ([]models.Dataset, error) {
	return m.datasets.ByIDs(ctx, ids) //nolint:wrapcheck
}

// Count returns the number of datasets matching filters.
func (m *Manager) Count(ctx context.Context, filters ...store.Filter) (int64, error) {
	return m.datasets.Count(ctx, filters...) //nolint:wrapcheck
}

func (m *Manager) update(ctx context.Context, ds *models.Dataset, values map[string]any) error {
	result := m.db.WithContext(ctx).Model(&models.Dataset{}).Where("id = ?", ds.ID).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update dataset %d: %w", ds.ID, result.Error)
	}

	return nil
}

// accessibleBy matches datasets without access grants or with an access grant to one of p's roles.
func accessibleBy(p *auth.Principal) store.Filter {
	const noGrants = "NOT EXISTS (SELECT 1 FROM dataset_permissions dp " +
		"WHERE dp.dataset_id = datasets.id AND dp.action = ?)"

	if len(p.RoleIDs()) == 0 {
		return store.Where(clause.Expr{SQL: noGrants, Vars: []any{string(models.DatasetActionAccess)}})
	}

	const granted = "EXISTS (SELECT 1 FROM dataset_permissions dp " +
		"WHERE dp.dataset_id = datasets.id AND dp.action = ? AND dp.role_id IN ?)"

	return store.Where(clause.Or(
		clause.Expr{SQL: noGrants, Vars: []any{string(models.DatasetActionAccess)}},
		clause.Expr{SQL: granted, Vars: []any{string(models.DatasetActionAccess), p.RoleIDs()}},
	))
}
