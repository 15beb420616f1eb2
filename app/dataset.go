package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seqvault/seqvault/internal/auth"
	"github.com/seqvault/seqvault/internal/dataset"
	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/store"
	"github.com/seqvault/seqvault/internal/web/handler"
)

// datasetFlags are shared by the dataset commands.
type datasetFlags struct {
	as      string
	view    string
	keys    []string
	q       []string
	qv      []string
	order   string
	limit   int
	offset  int
	owner   string
	private bool
	state   string
}

var dsFlags datasetFlags //nolint:gochecknoglobals

func init() { //nolint: gochecknoinits
	datasetCmd.PersistentFlags().StringVar(&dsFlags.as, "as", "", "act as the user with this email instead of an administrator")
	datasetCmd.PersistentFlags().StringVar(&dsFlags.view, "view", "", "serialization view: summary or detailed")
	datasetCmd.PersistentFlags().StringSliceVar(&dsFlags.keys, "keys", nil, "extra keys to serialize")

	datasetListCmd.Flags().StringArrayVar(&dsFlags.q, "q", nil, "filter as field-op, e.g. deleted-eq")
	datasetListCmd.Flags().StringArrayVar(&dsFlags.qv, "qv", nil, "value of the filter at the same position")
	datasetListCmd.Flags().StringVar(&dsFlags.order, "order", "", "order, e.g. create_time-dsc")
	datasetListCmd.Flags().IntVar(&dsFlags.limit, "limit", -1, "maximum number of datasets, negative for all")
	datasetListCmd.Flags().IntVar(&dsFlags.offset, "offset", 0, "number of datasets to skip")

	datasetCreateCmd.Flags().StringVar(&dsFlags.owner, "owner", "", "email of the user managing the dataset")
	datasetCreateCmd.Flags().BoolVar(&dsFlags.private, "private", false, "restrict access to the owner")
	datasetCreateCmd.Flags().StringVar(&dsFlags.state, "state", "", "initial state")

	datasetCmd.AddCommand(datasetListCmd, datasetShowCmd, datasetCreateCmd,
		datasetDeleteCmd, datasetUndeleteCmd, datasetPurgeCmd)
	rootCmd.AddCommand(datasetCmd)
}

var (
	datasetCmd = &cobra.Command{
		Use:     "dataset",
		Aliases: []string{"ds"},
		Short:   "Query and manage datasets",
	}

	datasetListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the datasets the acting user may access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, svc *handler.Services) error {
				p, err := principal(ctx, svc, dsFlags.as)
				if err != nil {
					return err
				}

				opts, err := listOptions(svc)
				if err != nil {
					return err
				}

				keys, err := svc.Serializer.ResolveKeys(viewOptions())
				if err != nil {
					return err //nolint:wrapcheck
				}

				datasets, err := svc.Datasets.ListAccessible(ctx, p, opts)
				if err != nil {
					return err //nolint:wrapcheck
				}

				out := make([]map[string]any, 0, len(datasets))

				for i := range datasets {
					item, err := svc.Serializer.Serialize(ctx, &datasets[i], keys, dataset.SerializationContext{User: p})
					if err != nil {
						return err //nolint:wrapcheck
					}

					out = append(out, item)
				}

				return render(cmd.OutOrStdout(), output, out)
			})
		},
	}

	datasetShowCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show one dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onDataset(cmd, args[0], accessPermission, nil)
		},
	}

	datasetCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a dataset managed by --owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsFlags.owner == "" {
				return ErrMissingOwner
			}

			return withServices(cmd.Context(), func(ctx context.Context, svc *handler.Services) error {
				owner, err := principal(ctx, svc, dsFlags.owner)
				if err != nil {
					return err
				}

				opts := dataset.CreateOptions{State: models.DatasetState(dsFlags.state)}
				if owner.PrivateRoleID != 0 {
					opts.ManageRoles = []uint{owner.PrivateRoleID}
					if dsFlags.private {
						opts.AccessRoles = []uint{owner.PrivateRoleID}
					}
				}

				ds, err := svc.Datasets.Create(ctx, opts)
				if err != nil {
					return err //nolint:wrapcheck
				}

				log.Info().Uint64("dataset_id", ds.ID).Str("owner", dsFlags.owner).Msg("dataset created")

				return show(cmd, svc, ds, owner)
			})
		},
	}

	datasetDeleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Mark a dataset deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onDataset(cmd, args[0], managePermission, func(ctx context.Context, svc *handler.Services, ds *models.Dataset) (*models.Dataset, error) {
				return svc.Datasets.Delete(ctx, ds) //nolint:wrapcheck
			})
		},
	}

	datasetUndeleteCmd = &cobra.Command{
		Use:   "undelete ID",
		Short: "Bring a deleted dataset back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onDataset(cmd, args[0], managePermission, func(ctx context.Context, svc *handler.Services, ds *models.Dataset) (*models.Dataset, error) {
				return svc.Datasets.Undelete(ctx, ds) //nolint:wrapcheck
			})
		},
	}

	datasetPurgeCmd = &cobra.Command{
		Use:   "purge ID",
		Short: "Delete a dataset and remove its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return onDataset(cmd, args[0], managePermission, func(ctx context.Context, svc *handler.Services, ds *models.Dataset) (*models.Dataset, error) {
				return svc.Datasets.Purge(ctx, ds) //nolint:wrapcheck
			})
		},
	}
)

func accessPermission(svc *handler.Services) *dataset.RBACPermission {
	return svc.Datasets.Permissions.Access
}

func managePermission(svc *handler.Services) *dataset.RBACPermission {
	return svc.Datasets.Permissions.Manage
}

type datasetAction func(ctx context.Context, svc *handler.Services, ds *models.Dataset) (*models.Dataset, error)

// onDataset loads the dataset with the encoded id, checks the permission of the
// acting user, applies action when set and prints the result.
func onDataset(
	cmd *cobra.Command,
	encoded string,
	perm func(*handler.Services) *dataset.RBACPermission,
	action datasetAction,
) error {
	return withServices(cmd.Context(), func(ctx context.Context, svc *handler.Services) error {
		id, err := svc.Codec.Decode(encoded)
		if err != nil {
			return err //nolint:wrapcheck
		}

		ds, err := svc.Datasets.ByID(ctx, id)
		if err != nil {
			return err //nolint:wrapcheck
		}

		p, err := principal(ctx, svc, dsFlags.as)
		if err != nil {
			return err
		}

		allowed, err := perm(svc).IsPermitted(ctx, ds, p)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if !allowed {
			return fmt.Errorf("%w: %s permission required", ErrPermissionDenied, perm(svc).Action())
		}

		if action != nil {
			if ds, err = action(ctx, svc, ds); err != nil {
				return err
			}
		}

		return show(cmd, svc, ds, p)
	})
}

func show(cmd *cobra.Command, svc *handler.Services, ds *models.Dataset, p *auth.Principal) error {
	out, err := svc.Serializer.SerializeToView(cmd.Context(), ds, viewOptions(), dataset.SerializationContext{User: p})
	if err != nil {
		return err //nolint:wrapcheck
	}

	return render(cmd.OutOrStdout(), output, out)
}

func viewOptions() dataset.ViewOptions {
	return dataset.ViewOptions{View: dsFlags.view, Keys: dsFlags.keys}
}

func listOptions(svc *handler.Services) (store.ListOptions, error) {
	filters, err := svc.Filters.Parse(dsFlags.q, dsFlags.qv)
	if err != nil {
		return store.ListOptions{}, err //nolint:wrapcheck
	}

	order, err := svc.Filters.ParseOrder(dsFlags.order)
	if err != nil {
		return store.ListOptions{}, err //nolint:wrapcheck
	}

	opts := store.ListOptions{Filters: filters, OrderBy: order}

	if dsFlags.limit >= 0 {
		opts.Limit = &dsFlags.limit
	}

	if dsFlags.offset > 0 {
		opts.Offset = &dsFlags.offset
	}

	return opts, nil
}
