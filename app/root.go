// Package app implements the command line of seqvault.
package app

import (
	"github.com/spf13/cobra"

	"github.com/seqvault/seqvault/internal/config"
)

var (
	configPath string // directory holding main.toml
	output     string // output format of the query commands

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "seqvault",
	Short: "seqvault manages datasets and who may access them",
	Long: `seqvault stores datasets in an object store, tracks their lifecycle
(deleted, purged) and grants manage and access rights to roles.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory holding main.toml")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", formatJSON, "output format: json or yaml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func readConfig() error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err //nolint:wrapcheck
}
