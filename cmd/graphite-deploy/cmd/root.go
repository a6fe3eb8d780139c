package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flibidydibidy/graphite-deploy/internal/logger"
	"github.com/flibidydibidy/graphite-deploy/internal/service/packager"
	"github.com/flibidydibidy/graphite-deploy/internal/version"
)

var (
	// configPath to the optional settings YAML file.
	configPath string
	// workDir is the directory holding the build trees.
	workDir string
	// dryRun skips the uploads.
	dryRun bool
	// logLevel is the minimum level of printed messages.
	logLevel string
	// metricsPath is the optional Prometheus textfile.
	metricsPath string

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command for packaging and publishing releases.
	rootCmd = &cobra.Command{
		Use:   version.Name,
		Short: "Package the graphite builds and publish them to the release bucket",
		Long: `Packages every build configuration into deploy/<release>/ and deploy/<release>.zip,
then uploads the archive and the raw executable to dist/<release>.zip and dist/<release>.exe
with a public-read ACL.

The OpenCV install is read from OpenCV_DIR in each build's CMakeCache.txt. AWS credentials
and region come from the usual AWS environment variables and shared config files.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %s", errUnknownLogLevel, logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:  configPath,
				WorkDir:     workDir,
				DryRun:      dryRun,
				MetricsPath: metricsPath,
			}

			report, err := packager.Run(ctx, options)
			if err != nil {
				return err
			}

			logger.InfoKV(ctx, "Deploy finished",
				"run_id", report.RunID, "published", len(report.Releases), "aborted", report.Aborted())

			return nil
		},
	}
)

// Execute runs the graphite-deploy CLI and exits with non-zero status on error.
func Execute() {
	defer logger.Sync()

	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "Deploy failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to the settings file (built-in settings when empty)")
	flags.StringVarP(&workDir, "workdir", "w", ".", "directory holding the build trees and the deploy folder")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "package everything but skip the uploads")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn or error")
	flags.StringVar(&metricsPath, "metrics-file", "", "write run metrics in the Prometheus text format to this file")

	rootCmd.AddCommand(configCmd, unpackCmd)
}
