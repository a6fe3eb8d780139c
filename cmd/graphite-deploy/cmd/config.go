package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flibidydibidy/graphite-deploy/internal/config"
)

var (
	// forceOverwrite allows replacing an existing settings file.
	forceOverwrite bool

	errSettingsExist = errors.New("settings file already exists, use --force to overwrite")

	// configCmd writes the built-in settings so they can be edited.
	configCmd = &cobra.Command{
		Use:   "config [path]",
		Short: "Write the built-in settings to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !forceOverwrite {
				return fmt.Errorf("%s: %w", path, errSettingsExist)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configCmd.Flags().BoolVarP(&forceOverwrite, "force", "f", false, "overwrite an existing settings file")
}
