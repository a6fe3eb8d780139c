package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/flibidydibidy/graphite-deploy/internal/config"
	"github.com/flibidydibidy/graphite-deploy/internal/domain/build"
	"github.com/flibidydibidy/graphite-deploy/internal/lock"
	"github.com/flibidydibidy/graphite-deploy/internal/logger"
	"github.com/flibidydibidy/graphite-deploy/internal/observability"
	"github.com/flibidydibidy/graphite-deploy/internal/storage"
	"github.com/flibidydibidy/graphite-deploy/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional settings file; without it the built-in settings are used.
	ConfigPath string
	// Settings overrides ConfigPath when set.
	Settings *config.Config
	// WorkDir is the directory build and deploy paths are relative to (defaults to ".").
	WorkDir string
	// DryRun packages everything but only logs the uploads.
	DryRun bool
	// MetricsPath is an optional Prometheus textfile written when the run ends.
	MetricsPath string
	// Uploader replaces the S3 uploader built from the settings.
	Uploader storage.Uploader
}

// Report summarizes a run.
type Report struct {
	// RunID identifies the run in logs and manifests.
	RunID string
	// Releases are the releases fully packaged and uploaded, in order.
	Releases []*Release
	// AbortedRelease is the release whose upload failed, if any.
	AbortedRelease string
	// AbortErr is the storage error that abandoned the run.
	AbortErr error
	// Skipped are the releases never attempted because of AbortErr.
	Skipped []string
}

// Aborted reports whether a storage error abandoned the run.
func (r *Report) Aborted() bool {
	return r.AbortErr != nil
}

// packager carries the settings of one run across configurations.
// It is unexported: callers use Run, which wires settings, marker, metrics and uploader.
type packager struct {
	// cfg holds the deployment settings.
	cfg *config.Config
	// workDir is the absolute directory relative paths are resolved against.
	workDir string
	// deployDir is the absolute output directory.
	deployDir string
	// runID is recorded in every manifest.
	runID string
	// uploader publishes archives and executables.
	uploader storage.Uploader
	// metrics records stage timings and outcomes.
	metrics *observability.Metrics
}

const (
	// DefaultDirMode is used for the deploy and staging directories.
	DefaultDirMode os.FileMode = 0o755

	// shutdownTimeout bounds flushing the metrics when the run ends.
	shutdownTimeout = 5 * time.Second
)

// Run packages and uploads every configured release.
// Fatal problems are returned as errors; a storage failure is reported in the Report.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	runID := uuid.NewString()

	ctx = logger.WithName(ctx, version.Name)
	ctx = logger.WithKV(ctx, "run_id", runID)

	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	if workDir, err = filepath.Abs(workDir); err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	deployDir := resolve(workDir, cfg.DeployDir)
	if err = os.MkdirAll(deployDir, DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create deploy directory: %w", err)
	}

	marker, err := lock.Acquire(ctx, deployDir, lock.Options{ProcessName: executableName()})
	if err != nil {
		return nil, fmt.Errorf("acquire deploy marker: %w", err)
	}

	defer func() {
		if releaseErr := marker.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to remove the deploy marker", "error", releaseErr)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	defer flushMetrics(ctx, metrics, opts.MetricsPath)

	uploader, err := newUploader(ctx, opts, cfg)
	if err != nil {
		return nil, err
	}

	pkg := &packager{
		cfg:       cfg,
		workDir:   workDir,
		deployDir: deployDir,
		runID:     runID,
		uploader:  uploader,
		metrics:   metrics,
	}

	report, err := pkg.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("packager failed: %w", err)
	}

	return report, nil
}

// loadSettings returns the explicit settings, the settings file or the defaults, in that order.
func loadSettings(opts *Options) (*config.Config, error) {
	switch {
	case opts.Settings != nil:
		if err := config.Validate(opts.Settings); err != nil {
			return nil, err
		}

		return opts.Settings, nil
	case opts.ConfigPath != "":
		return config.Load(opts.ConfigPath)
	default:
		return config.Default(), nil
	}
}

// newUploader picks the uploader for the run.
//
//nolint:ireturn // The uploader is chosen at runtime.
func newUploader(ctx context.Context, opts *Options, cfg *config.Config) (storage.Uploader, error) {
	switch {
	case opts.Uploader != nil:
		return opts.Uploader, nil
	case opts.DryRun:
		return storage.NewDryRunUploader(cfg.Bucket), nil
	}

	uploader, err := storage.NewS3Uploader(ctx, storage.S3Options{
		Bucket:   cfg.Bucket,
		ACL:      cfg.ACL,
		Region:   cfg.Region,
		Endpoint: cfg.Endpoint,
		AppID:    version.AppID(),
	})
	if err != nil {
		return nil, fmt.Errorf("create uploader: %w", err)
	}

	return uploader, nil
}

// flushMetrics stops the meter provider and writes the textfile when requested.
func flushMetrics(ctx context.Context, metrics *observability.Metrics, path string) {
	if path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.WarnKV(ctx, "Unable to write metrics", "path", path, "error", err)
		} else {
			logger.DebugKV(ctx, "Metrics written", "path", path)
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := metrics.Shutdown(ctx); err != nil {
		logger.WarnKV(ctx, "Unable to stop metrics", "error", err)
	}
}

// Run processes the configurations in order.
// The first storage error abandons every configuration after it.
func (p *packager) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: p.runID}

	logger.InfoKV(ctx, "Deploying releases",
		"configurations", len(p.cfg.Configurations), "bucket", p.cfg.Bucket, "deploy_dir", p.deployDir)

	for i, c := range p.cfg.Configurations {
		name := p.cfg.Layout.ReleaseName(c)
		releaseCtx := logger.WithKV(logger.WithKV(ctx, "release", name), "arch", c.Arch)

		release, err := p.deploy(releaseCtx, c)
		if err == nil {
			p.metrics.RecordRelease(ctx, c.Arch, observability.StatusSuccess)
			report.Releases = append(report.Releases, release)

			continue
		}

		p.metrics.RecordRelease(ctx, c.Arch, observability.StatusFailed)

		if !storage.IsStorageError(err) {
			return report, err
		}

		report.AbortedRelease = name
		report.AbortErr = err
		report.Skipped = p.releaseNames(p.cfg.Configurations[i+1:])

		for _, skipped := range p.cfg.Configurations[i+1:] {
			p.metrics.RecordRelease(ctx, skipped.Arch, observability.StatusSkipped)
		}

		p.logAbort(releaseCtx, err, report.Skipped)

		break
	}

	logger.Info(ctx, p.cfg.Reminder)

	return report, nil
}

// logAbort reports a storage error together with what was left undone.
func (p *packager) logAbort(ctx context.Context, err error, skipped []string) {
	kvs := []any{"error", err, "skipped", skipped}

	var storageErr *storage.Error
	if errors.As(err, &storageErr) && storageErr.Code() != "" {
		kvs = append(kvs, "code", storageErr.Code())
	}

	logger.ErrorKV(ctx, "Upload failed, abandoning the remaining configurations", kvs...)
}

// releaseNames returns the release names of configs.
func (p *packager) releaseNames(configs []build.Configuration) []string {
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, p.cfg.Layout.ReleaseName(c))
	}

	return names
}

// resolve makes p absolute against base unless it already is.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(base, p)
}
