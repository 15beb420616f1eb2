package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqvault/seqvault/internal/config"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := readConfig(); err != nil {
			return err
		}

		var (
			out string
			err error
		)

		switch output {
		case formatYAML:
			out, err = config.DumpConfigYAML(&cfg)
		case formatJSON, "":
			out, err = config.DumpConfigJSON(&cfg)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, output)
		}

		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), out)

		return err //nolint:wrapcheck
	},
}
