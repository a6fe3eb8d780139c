package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flibidydibidy/graphite-deploy/internal/archive"
)

// unpackCmd extracts a release archive, e.g. to check what a download will contain.
var unpackCmd = &cobra.Command{
	Use:   "unpack <archive> <directory>",
	Short: "Extract a release archive into a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := archive.Extract(args[0], args[1]); err != nil {
			return err
		}

		entries, err := archive.Entries(args[0])
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d entries to %s\n", len(entries), args[1])

		return nil
	},
}
