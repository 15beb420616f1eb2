package auth

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/db/models"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
)

// Service resolves principals and manages users, roles and group memberships.
type Service struct {
	db         *gorm.DB
	adminUsers map[string]struct{}
	cache      *expirable.LRU[uint64, *Principal]
}

// Option configures a Service.
type Option func(*Service)

// WithAdminUsers marks the users with the given emails as administrators.
func WithAdminUsers(emails ...string) Option {
	return func(s *Service) {
		for _, email := range emails {
			s.adminUsers[email] = struct{}{}
		}
	}
}

// WithCache sets the size and lifetime of the principal cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size <= 0 {
			size = defaultCacheSize
		}

		s.cache = expirable.NewLRU[uint64, *Principal](size, nil, ttl)
	}
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:         db,
		adminUsers: make(map[string]struct{}),
		cache:      expirable.NewLRU[uint64, *Principal](defaultCacheSize, nil, defaultCacheTTL),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Principal returns the principal for userID with its direct and group derived roles.
// Disabled users have no principal.
func (s *Service) Principal(ctx context.Context, userID uint64) (*Principal, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}

	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, listed := s.adminUsers[user.Email]

	p := &Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Admin:    listed || lo.SomeBy(roles, func(r models.Role) bool { return r.Type == models.RoleTypeAdmin }),
		Roles:    make(map[uint]struct{}, len(roles)),
	}

	for _, r := range roles {
		p.Roles[r.ID] = struct{}{}

		if r.Type == models.RoleTypePrivate {
			p.PrivateRoleID = r.ID
		}
	}

	s.cache.Add(userID, p)

	return p, nil
}

// Invalidate drops the cached principal of userID.
func (s *Service) Invalidate(userID uint64) {
	s.cache.Remove(userID)
}

// Roles returns every role the user holds, directly or through a group, ordered by id.
func (s *Service) Roles(ctx context.Context, userID uint64) ([]models.Role, error) {
	db := s.db.WithContext(ctx)

	var direct []models.Role

	err := db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&direct).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get direct roles: %w", err)
	}

	var viaGroups []models.Role

	err = db.Model(&models.Role{}).
		Joins("JOIN group_roles ON group_roles.role_id = roles.id").
		Joins("JOIN user_groups ON user_groups.group_id = group_roles.group_id").
		Where("user_groups.user_id = ?", userID).
		Find(&viaGroups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get group roles: %w", err)
	}

	roles := lo.UniqBy(append(direct, viaGroups...), func(r models.Role) uint { return r.ID })
	slices.SortFunc(roles, func(a, b models.Role) int { return cmp.Compare(a.ID, b.ID) })

	return roles, nil
}

// RoleIDs returns the ids of every role the user holds.
func (s *Service) RoleIDs(ctx context.Context, userID uint64) ([]uint, error) {
	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.Map(roles, func(r models.Role, _ int) uint { return r.ID }), nil
}

// PrivateRole returns the role owned by the user alone.
func (s *Service) PrivateRole(ctx context.Context, userID uint64) (*models.Role, error) {
	var role models.Role

	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.type = ?", userID, models.RoleTypePrivate).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrPrivateRoleNotFound, userID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get private role: %w", err)
	}

	return &role, nil
}

// UserByID returns the user with the given id unless it is deleted.
func (s *Service) UserByID(ctx context.Context, userID uint64) (*models.User, error) {
	return s.findUser(ctx, "id = ?", userID)
}

// UserByEmail returns the user with the given email unless it is deleted.
func (s *Service) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Service) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Where(query, arg).Where("deleted_at IS NULL").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// CreateUserOptions describes a new local user.
type CreateUserOptions struct {
	Username string
	Email    string
	Password string
	Inactive bool
}

// CreateUser creates a user together with its private role in one transaction.
func (s *Service) CreateUser(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	hashed, err := models.HashPassword(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Active:   !opts.Inactive,
		Username: opts.Username,
		Email:    opts.Email,
		Password: hashed,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User

		err := tx.Where("username = ? OR email = ?", opts.Username, opts.Email).First(&existing).Error
		if err == nil {
			return ErrUserNameOrEmailExists
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if err = tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		role := models.Role{
			Name:        opts.Email,
			Description: "Private role for " + opts.Email,
			Type:        models.RoleTypePrivate,
		}

		if err = tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create private role: %w", err)
		}

		if err = tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
			return fmt.Errorf("failed to assign private role: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("user created")

	return &user, nil
}

// EnsureRole returns the role called name, creating it with typ when missing.
func (s *Service) EnsureRole(ctx context.Context, name string, typ models.RoleType) (*models.Role, error) {
	var role models.Role

	err := s.db.WithContext(ctx).
		Where(models.Role{Name: name}).
		Attrs(models.Role{Type: typ, IsSystem: typ == models.RoleTypeAdmin || typ == models.RoleTypeSystem}).
		FirstOrCreate(&role).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create/get role %s: %w", name, err)
	}

	return &role, nil
}

// EnsureGroup returns the group called name, creating it when missing.
func (s *Service) EnsureGroup(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group

	err := s.db.WithContext(ctx).Where(models.Group{Name: name}).FirstOrCreate(&group).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create/get group %s: %w", name, err)
	}

	return &group, nil
}

// AddUserToRole assigns roleID to the user directly.
func (s *Service) AddUserToRole(ctx context.Context, userID uint64, roleID uint) error {
	defer s.Invalidate(userID)

	err := s.db.WithContext(ctx).
		Where(models.UserRole{UserID: userID, RoleID: roleID}).
		FirstOrCreate(&models.UserRole{UserID: userID, RoleID: roleID}).Error
	if err != nil {
		return fmt.Errorf("failed to add user to role: %w", err)
	}

	return nil
}

// AddUserToGroup makes the user a member of groupID.
func (s *Service) AddUserToGroup(ctx context.Context, userID uint64, groupID uint) error {
	defer s.Invalidate(userID)

	err := s.db.WithContext(ctx).
		Where(models.UserGroup{UserID: userID, GroupID: groupID}).
		FirstOrCreate(&models.UserGroup{UserID: userID, GroupID: groupID}).Error
	if err != nil {
		return fmt.Errorf("failed to add user to group: %w", err)
	}

	return nil
}

// AddGroupRole maps roleID to every member of groupID.
func (s *Service) AddGroupRole(ctx context.Context, groupID, roleID uint) error {
	// members are not tracked per group in the cache
	defer s.cache.Purge()

	err := s.db.WithContext(ctx).
		Where(models.GroupRole{GroupID: groupID, RoleID: roleID}).
		FirstOrCreate(&models.GroupRole{GroupID: groupID, RoleID: roleID}).Error
	if err != nil {
		return fmt.Errorf("failed to map role to group: %w", err)
	}

	return nil
}

// GetUserGroups retrieves all groups a user belongs to.
func (s *Service) GetUserGroups(ctx context.Context, userID uint64) ([]models.Group, error) {
	var groups []models.Group

	err := s.db.WithContext(ctx).Table("groups").
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Order("groups.id").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	return groups, nil
}
