package dataset

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/db/models"
)

// TimeFormat is the layout of serialized timestamps.
const TimeFormat = "2006-01-02T15:04:05.999999"

// View names.
const (
	ViewSummary  = "summary"
	ViewDetailed = "detailed"
)

// IDEncoder turns database ids into opaque strings.
type IDEncoder interface {
	Encode(id uint64) string
}

// FileLocator reports where dataset content lives.
type FileLocator interface {
	FullPath(id uint64) string
	FullExtraFilesPath(id uint64) string
}

// SerializationContext carries the caller of a serialization.
type SerializationContext struct {
	// User is the caller, nil for anonymous callers.
	User *auth.Principal
}

// ViewOptions selects the keys of SerializeToView.
type ViewOptions struct {
	View        string
	Keys        []string
	DefaultView string
}

type serializeFunc func(ctx context.Context, ds *models.Dataset, key string, sctx SerializationContext) (any, error)

// Serializer renders datasets as maps of JSON compatible values.
type Serializer struct {
	ids         IDEncoder
	perms       *Permissions
	files       FileLocator
	exposePath  bool
	defaultView string
	views       map[string][]string
	serializers map[string]serializeFunc
	keyset      []string
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithExposeDatasetPath shows file locations to every caller, not only to administrators.
func WithExposeDatasetPath(expose bool) SerializerOption {
	return func(s *Serializer) {
		s.exposePath = expose
	}
}

// WithFileLocator sets where file_name and extra_files_path are resolved.
func WithFileLocator(files FileLocator) SerializerOption {
	return func(s *Serializer) {
		s.files = files
	}
}

// NewSerializer returns a serializer encoding ids with ids and reading grants from perms.
func NewSerializer(ids IDEncoder, perms *Permissions, opts ...SerializerOption) *Serializer {
	s := &Serializer{
		ids:         ids,
		perms:       perms,
		defaultView: ViewSummary,
	}

	summary := []string{
		"id", "create_time", "update_time", "state", "deleted", "purged", "purgable",
		"file_size", "total_size", "uuid",
	}

	s.views = map[string][]string{
		ViewSummary:  summary,
		ViewDetailed: append(slices.Clone(summary), "object_store_id", "permissions"),
	}

	s.serializers = map[string]serializeFunc{
		"id": func(_ context.Context, ds *models.Dataset, _ string, _ SerializationContext) (any, error) {
			return s.ids.Encode(ds.ID), nil
		},
		"create_time":      timeField(func(ds *models.Dataset) time.Time { return ds.CreatedAt }),
		"update_time":      timeField(func(ds *models.Dataset) time.Time { return ds.UpdatedAt }),
		"uuid":             passthrough(func(ds *models.Dataset) any { return ds.UUID }),
		"state":            passthrough(func(ds *models.Dataset) any { return string(ds.State) }),
		"deleted":          passthrough(func(ds *models.Dataset) any { return ds.Deleted }),
		"purged":           passthrough(func(ds *models.Dataset) any { return ds.Purged }),
		"purgable":         passthrough(func(ds *models.Dataset) any { return ds.Purgable }),
		"file_size":        sizeField(func(ds *models.Dataset) *int64 { return ds.FileSize }),
		"total_size":       sizeField(func(ds *models.Dataset) *int64 { return ds.TotalSize }),
		"object_store_id":  passthrough(func(ds *models.Dataset) any { return ds.ObjectStoreID }),
		"file_name":        s.serializeFileName,
		"extra_files_path": s.serializeExtraFilesPath,
		"permissions": func(ctx context.Context, ds *models.Dataset, key string, sctx SerializationContext) (any, error) {
			return s.SerializePermissions(ctx, ds, key, sctx.User)
		},
	}

	s.keyset = append(append(slices.Clone(summary), "object_store_id", "permissions"), "file_name", "extra_files_path")

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SerializableKeyset returns every key the serializer can produce.
func (s *Serializer) SerializableKeyset() []string {
	return slices.Clone(s.keyset)
}

// View returns the keys of the named view.
func (s *Serializer) View(name string) ([]string, bool) {
	keys, ok := s.views[name]

	return slices.Clone(keys), ok
}

// DefaultView returns the view used when neither a view nor keys are requested.
func (s *Serializer) DefaultView() string {
	return s.defaultView
}

// Serialize renders keys of ds. Unknown keys and keys the caller may not see are left out.
func (s *Serializer) Serialize(ctx context.Context, ds *models.Dataset, keys []string, sctx SerializationContext) (map[string]any, error) {
	out := make(map[string]any, len(keys))

	for _, key := range keys {
		if _, ok := s.serializers[key]; !ok {
			continue
		}

		v, err := s.SerializeKey(ctx, ds, key, sctx)
		if IsSkipAttribute(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		out[key] = v
	}

	return out, nil
}

// SerializeKey renders a single key and reports a *SkipAttributeError when the caller may not see it.
func (s *Serializer) SerializeKey(ctx context.Context, ds *models.Dataset, key string, sctx SerializationContext) (any, error) {
	fn, ok := s.serializers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return fn(ctx, ds, key, sctx)
}

// SerializeToView renders the keys of opts.View plus opts.Keys. Without a view only
// opts.Keys are rendered and without either the default view is used.
func (s *Serializer) SerializeToView(ctx context.Context, ds *models.Dataset, opts ViewOptions, sctx SerializationContext) (map[string]any, error) {
	keys, err := s.ResolveKeys(opts)
	if err != nil {
		return nil, err
	}

	return s.Serialize(ctx, ds, keys, sctx)
}

// ResolveKeys returns the keys SerializeToView would render for opts.
func (s *Serializer) ResolveKeys(opts ViewOptions) ([]string, error) {
	view := opts.View

	if view == "" {
		if len(opts.Keys) > 0 {
			return lo.Uniq(opts.Keys), nil
		}

		view = lo.CoalesceOrEmpty(opts.DefaultView, s.defaultView)
	}

	keys, ok := s.views[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	return lo.Uniq(append(slices.Clone(keys), opts.Keys...)), nil
}

// SerializePermissions returns the encoded role ids of the manage and access grants of ds.
// Only callers that may manage ds see them.
func (s *Serializer) SerializePermissions(ctx context.Context, ds *models.Dataset, key string, user *auth.Principal) (map[string][]string, error) {
	if s.perms == nil {
		return nil, skip(key, "permissions are not available")
	}

	canManage, err := s.perms.Manage.IsPermitted(ctx, ds, user)
	if err != nil {
		return nil, err
	}

	if !canManage {
		return nil, skip(key, "caller may not manage the dataset")
	}

	manage, access, err := s.perms.Get(ctx, ds)
	if err != nil {
		return nil, err
	}

	encode := func(g models.DatasetPermission, _ int) string { return s.ids.Encode(uint64(g.RoleID)) }

	return map[string][]string{
		"manage": lo.Map(manage, encode),
		"access": lo.Map(access, encode),
	}, nil
}

func (s *Serializer) serializeFileName(_ context.Context, ds *models.Dataset, key string, sctx SerializationContext) (any, error) {
	if err := s.checkPathVisible(key, sctx); err != nil {
		return nil, err
	}

	if ds.ExternalFilename != "" {
		return ds.ExternalFilename, nil
	}

	if s.files == nil {
		return nil, skip(key, "no object store")
	}

	return s.files.FullPath(ds.ID), nil
}

func (s *Serializer) serializeExtraFilesPath(_ context.Context, ds *models.Dataset, key string, sctx SerializationContext) (any, error) {
	if err := s.checkPathVisible(key, sctx); err != nil {
		return nil, err
	}

	if s.files == nil {
		return nil, skip(key, "no object store")
	}

	return s.files.FullExtraFilesPath(ds.ID), nil
}

func (s *Serializer) checkPathVisible(key string, sctx SerializationContext) error {
	if s.exposePath || sctx.User.IsAdmin() {
		return nil
	}

	return skip(key, "dataset paths are only shown to administrators")
}

func passthrough(get func(*models.Dataset) any) serializeFunc {
	return func(_ context.Context, ds *models.Dataset, _ string, _ SerializationContext) (any, error) {
		return get(ds), nil
	}
}

func timeField(get func(*models.Dataset) time.Time) serializeFunc {
	return func(_ context.Context, ds *models.Dataset, _ string, _ SerializationContext) (any, error) {
		return get(ds).UTC().Format(TimeFormat), nil
	}
}

func sizeField(get func(*models.Dataset) *int64) serializeFunc {
	return func(_ context.Context, ds *models.Dataset, _ string, _ SerializationContext) (any, error) {
		size := get(ds)
		if size == nil {
			return nil, nil //nolint:nilnil
		}

		return *size, nil
	}
}
