// Package dataset serves the dataset api: listing, creation, lifecycle changes
// and the grants of a dataset.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/store"
	"github.com/seqvault/seqvault/internal/web/handler"
)

const (
	// Path is the collection path.
	Path = handler.APIPath + "/datasets"

	// ItemPath addresses a single dataset by its encoded id.
	ItemPath = Path + "/:id"
)

var (
	// ErrUnknownRole is returned when a grant names a role that does not exist.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidQuery is returned for malformed limit, offset or purge values.
	ErrInvalidQuery = errors.New("invalid query parameter")
)

// CreateRequest is the body of a dataset creation.
type CreateRequest struct {
	// Private restricts access to the creator.
	Private bool   `json:"private"`
	State   string `json:"state" validate:"omitempty,max=64"`
}

// PermissionsRequest replaces the grants of a dataset. Values are encoded role ids.
type PermissionsRequest struct {
	Manage []string `json:"manage" validate:"dive,required"`
	Access []string `json:"access" validate:"dive,required"`
}

// Service is the dataset handler service.
type Service struct {
	svc *handler.Services
}

// Handler is the dataset handler.
var Handler = Service{}

// Init initializes the dataset handler.
func (s *Service) Init(app *fiber.App, svc *handler.Services) error {
	if app == nil || svc == nil {
		return handler.ErrNilAppOrServices
	}

	s.svc = svc

	app.Get(Path, s.List)
	app.Post(Path, auth.RequireAuthenticated(), s.Create)
	app.Get(ItemPath, s.Show)
	app.Delete(ItemPath, auth.RequireAuthenticated(), s.Delete)
	app.Put(ItemPath+"/undelete", auth.RequireAuthenticated(), s.Undelete)
	app.Put(ItemPath+"/content", auth.RequireAuthenticated(), s.Upload)
	app.Get(ItemPath+"/permissions", auth.RequireAuthenticated(), s.Permissions)
	app.Put(ItemPath+"/permissions", auth.RequireAuthenticated(), s.SetPermissions)

	return nil
}

// List returns the datasets the caller may access.
func (s *Service) List(c fiber.Ctx) error {
	filters, err := s.svc.Filters.Parse(queryValues(c, "q"), queryValues(c, "qv"))
	if err != nil {
		return err //nolint:wrapcheck
	}

	order, err := s.svc.Filters.ParseOrder(c.Query("order"))
	if err != nil {
		return err //nolint:wrapcheck
	}

	opts := store.ListOptions{Filters: filters, OrderBy: order}

	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}

	if opts.Offset, err = queryInt(c, "offset"); err != nil {
		return err
	}

	keys, err := s.svc.Serializer.ResolveKeys(viewOptions(c))
	if err != nil {
		return err //nolint:wrapcheck
	}

	p := auth.PrincipalFromContext(c)

	datasets, err := s.svc.Datasets.ListAccessible(c.Context(), p, opts)
	if err != nil {
		return err //nolint:wrapcheck
	}

	out := make([]map[string]any, 0, len(datasets))

	for i := range datasets {
		item, err := s.svc.Serializer.Serialize(c.Context(), &datasets[i], keys, dataset.SerializationContext{User: p})
		if err != nil {
			return err //nolint:wrapcheck
		}

		out = append(out, item)
	}

	return c.JSON(out)
}

// Create adds a dataset owned by the caller.
func (s *Service) Create(c fiber.Ctx) error {
	req := new(CreateRequest)
	if err := handler.Bind(c, req); err != nil {
		return err //nolint:wrapcheck
	}

	p := auth.PrincipalFromContext(c)
	opts := dataset.CreateOptions{State: models.DatasetState(req.State)}

	if p.PrivateRoleID != 0 {
		opts.ManageRoles = []uint{p.PrivateRoleID}
		if req.Private {
			opts.AccessRoles = []uint{p.PrivateRoleID}
		}
	}

	ds, err := s.svc.Datasets.Create(c.Context(), opts)
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Uint64("dataset_id", ds.ID).Uint64("user_id", p.UserID).Bool("private", req.Private).Msg("dataset created")

	c.Status(fiber.StatusCreated)

	return s.respond(c, ds)
}

// Show returns one dataset.
func (s *Service) Show(c fiber.Ctx) error {
	ds, err := s.load(c, s.svc.Datasets.Permissions.Access)
	if err != nil {
		return err
	}

	return s.respond(c, ds)
}

// Delete marks a dataset deleted, or purges it with purge=true.
func (s *Service) Delete(c fiber.Ctx) error {
	purge := false

	if raw := c.Query("purge"); raw != "" {
		var err error
		if purge, err = strconv.ParseBool(raw); err != nil {
			return fmt.Errorf("%w: purge=%s", ErrInvalidQuery, raw)
		}
	}

	ds, err := s.load(c, s.svc.Datasets.Permissions.Manage)
	if err != nil {
		return err
	}

	if purge {
		ds, err = s.svc.Datasets.Purge(c.Context(), ds)
	} else {
		ds, err = s.svc.Datasets.Delete(c.Context(), ds)
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, ds)
}

// Undelete brings a deleted dataset back.
func (s *Service) Undelete(c fiber.Ctx) error {
	ds, err := s.load(c, s.svc.Datasets.Permissions.Manage)
	if err != nil {
		return err
	}

	if ds, err = s.svc.Datasets.Undelete(c.Context(), ds); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, ds)
}

// Upload stores the request body as the dataset content.
func (s *Service) Upload(c fiber.Ctx) error {
	ds, err := s.load(c, s.svc.Datasets.Permissions.Manage)
	if err != nil {
		return err
	}

	if ds.Deleted {
		return fmt.Errorf("%w: dataset is deleted", dataset.ErrInvalidState)
	}

	size, err := s.svc.Files.Write(ds.ID, bytes.NewReader(c.Body()))
	if err != nil {
		return err //nolint:wrapcheck
	}

	total, err := s.svc.Files.TotalSize(ds.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if ds, err = s.svc.Datasets.SetContent(c.Context(), ds, size, total); err != nil {
		return err //nolint:wrapcheck
	}

	return s.respond(c, ds)
}

// Permissions returns the encoded role ids granted on a dataset.
func (s *Service) Permissions(c fiber.Ctx) error {
	ds, err := s.load(c, s.svc.Datasets.Permissions.Manage)
	if err != nil {
		return err
	}

	perms, err := s.svc.Serializer.SerializePermissions(c.Context(), ds, "permissions", auth.PrincipalFromContext(c))
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(perms)
}

// SetPermissions replaces the manage and access grants of a dataset.
func (s *Service) SetPermissions(c fiber.Ctx) error {
	ds, err := s.load(c, s.svc.Datasets.Permissions.Manage)
	if err != nil {
		return err
	}

	req := new(PermissionsRequest)
	if err = handler.Bind(c, req); err != nil {
		return err //nolint:wrapcheck
	}

	manage, err := s.roleIDs(c, req.Manage)
	if err != nil {
		return err
	}

	access, err := s.roleIDs(c, req.Access)
	if err != nil {
		return err
	}

	err = s.svc.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		perms := s.svc.Datasets.Permissions.WithTx(tx)

		if _, err := perms.Manage.Set(c.Context(), ds, manage...); err != nil {
			return err //nolint:wrapcheck
		}

		_, err := perms.Access.Set(c.Context(), ds, access...)

		return err //nolint:wrapcheck
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	perms, err := s.svc.Serializer.SerializePermissions(c.Context(), ds, "permissions", auth.PrincipalFromContext(c))
	if dataset.IsSkipAttribute(err) {
		// the caller gave up its own manage grant
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(perms)
}

// load decodes the id parameter, fetches the dataset and checks the caller against perm.
func (s *Service) load(c fiber.Ctx, perm *dataset.RBACPermission) (*models.Dataset, error) {
	id, err := s.svc.Codec.Decode(c.Params("id"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ds, err := s.svc.Datasets.ByID(c.Context(), id)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	p := auth.PrincipalFromContext(c)

	allowed, err := perm.IsPermitted(c.Context(), ds, p)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if !allowed {
		log.Debug().Uint64("dataset_id", ds.ID).Str("action", string(perm.Action())).Msg("dataset permission denied")

		return nil, fiber.NewError(fiber.StatusForbidden, fmt.Sprintf("%s permission required", perm.Action()))
	}

	return ds, nil
}

func (s *Service) respond(c fiber.Ctx, ds *models.Dataset) error {
	out, err := s.svc.Serializer.SerializeToView(c.Context(), ds, viewOptions(c),
		dataset.SerializationContext{User: auth.PrincipalFromContext(c)})
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(out)
}

// roleIDs decodes encoded role ids and checks that every role exists.
func (s *Service) roleIDs(c fiber.Ctx, encoded []string) ([]uint, error) {
	decoded, err := s.svc.Codec.DecodeAll(encoded)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ids := lo.Uniq(lo.Map(decoded, func(id uint64, _ int) uint { return uint(id) }))
	if len(ids) == 0 {
		return nil, nil
	}

	var count int64
	if err = s.svc.DB.WithContext(c.Context()).Model(&models.Role{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}

	if int(count) != len(ids) {
		return nil, ErrUnknownRole
	}

	return ids, nil
}

func viewOptions(c fiber.Ctx) dataset.ViewOptions {
	return dataset.ViewOptions{
		View: c.Query("view"),
		Keys: splitList(c.Query("keys")),
	}
}

func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(v string, _ int) string {
		return strings.TrimSpace(v)
	}))
}

// queryValues returns every value of a repeated query parameter.
func queryValues(c fiber.Ctx, key string) []string {
	return lo.Map(c.Request().URI().QueryArgs().PeekMulti(key), func(v []byte, _ int) string {
		return string(v)
	})
}

func queryInt(c fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s=%s", ErrInvalidQuery, key, raw)
	}

	return &v, nil
}
