package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/flibidydibidy/graphite-deploy/internal/archive"
	"github.com/flibidydibidy/graphite-deploy/internal/domain/build"
	"github.com/flibidydibidy/graphite-deploy/internal/logger"
	"github.com/flibidydibidy/graphite-deploy/internal/pathmap"
	"github.com/flibidydibidy/graphite-deploy/internal/repository/cmakecache"
	"github.com/flibidydibidy/graphite-deploy/internal/storage"
	"github.com/flibidydibidy/graphite-deploy/internal/version"
)

// Release describes one packaged and published configuration.
type Release struct {
	// Name is the release name, e.g. graphite_x86.
	Name string
	// Arch is the architecture tag of the configuration.
	Arch string
	// DependencyDir is the translated dependency install root.
	DependencyDir string
	// StagingDir holds the copied artifacts.
	StagingDir string
	// ArchivePath is the ZIP built from StagingDir.
	ArchivePath string
	// ManifestPath is the checksum manifest written next to the archive.
	ManifestPath string
	// Files are the staged artifacts in copy order.
	Files []*StagedFile
	// Keys are the object keys uploaded, in order.
	Keys []string
}

// Stage names used for timing metrics.
const (
	stageLocate  = "locate"
	stageCopy    = "copy"
	stageArchive = "archive"
	stageUpload  = "upload"
)

const (
	contentTypeZip        = "application/zip"
	contentTypeExecutable = "application/vnd.microsoft.portable-executable"
)

// deploy runs every step for a single configuration.
func (p *packager) deploy(ctx context.Context, c build.Configuration) (*Release, error) {
	layout := p.cfg.Layout
	name := layout.ReleaseName(c)
	buildDir := resolve(p.workDir, c.BuildDirectory)

	logger.Info(ctx, "Locating the dependency directory")

	start := time.Now()

	dependencyDir, err := p.locateDependencyDir(ctx, c, buildDir)
	if err != nil {
		return nil, err
	}

	p.metrics.ObserveStage(ctx, stageLocate, start)

	release := &Release{
		Name:          name,
		Arch:          c.Arch,
		DependencyDir: dependencyDir,
		StagingDir:    filepath.Join(p.deployDir, name),
		ArchivePath:   filepath.Join(p.deployDir, name+build.ArchiveExtension),
		ManifestPath:  filepath.Join(p.deployDir, name+manifestExtension),
	}

	if err = prepareStagingDir(release.StagingDir); err != nil {
		return nil, err
	}

	start = time.Now()
	artifacts := layout.Artifacts(c, buildDir, dependencyDir)

	logger.InfoKV(ctx, "Copying artifacts", "count", len(artifacts), "staging_dir", release.StagingDir)

	for _, artifact := range artifacts {
		var staged *StagedFile

		staged, err = stageFile(artifact, release.StagingDir)
		if err != nil {
			return nil, err
		}

		logger.DebugKV(ctx, "Staged artifact", "source", artifact, "size", staged.Size)

		release.Files = append(release.Files, staged)
	}

	p.metrics.ObserveStage(ctx, stageCopy, start)

	logger.InfoKV(ctx, "Creating archive", "path", release.ArchivePath)

	start = time.Now()

	if err = createArchive(release); err != nil {
		return nil, err
	}

	p.metrics.ObserveStage(ctx, stageArchive, start)

	if err = p.writeManifest(release); err != nil {
		return nil, err
	}

	start = time.Now()

	executable := layout.ExecutablePath(buildDir)
	uploads := []struct {
		key, path, contentType string
	}{
		{layout.ArchiveKey(p.cfg.KeyPrefix, c), release.ArchivePath, contentTypeZip},
		{layout.ExecutableKey(p.cfg.KeyPrefix, c), executable, contentTypeExecutable},
	}

	for _, upload := range uploads {
		if err = p.upload(ctx, upload.key, upload.path, upload.contentType); err != nil {
			return nil, err
		}

		release.Keys = append(release.Keys, upload.key)
	}

	p.metrics.ObserveStage(ctx, stageUpload, start)
	logger.InfoKV(ctx, "Release published", "keys", release.Keys)

	return release, nil
}

// locateDependencyDir reads the dependency install root from the build cache
// and maps drive-letter paths under the mount root.
func (p *packager) locateDependencyDir(ctx context.Context, c build.Configuration, buildDir string) (string, error) {
	cache := cmakecache.Open(filepath.Join(buildDir, p.cfg.CacheFilename))

	recorded, err := cache.Lookup(p.cfg.DependencyKey)
	if err != nil {
		return "", &ConfigurationError{
			BuildDirectory: c.BuildDirectory,
			CachePath:      cache.Path(),
			Key:            p.cfg.DependencyKey,
			Err:            err,
		}
	}

	if pathmap.HasDrive(recorded) && p.cfg.MountRoot == "" {
		logger.DebugKV(ctx, "Mount root is empty, keeping the drive-letter path", "path", recorded)
	}

	dependencyDir := pathmap.Translate(recorded, p.cfg.MountRoot)
	logger.InfoKV(ctx, "Found dependency directory", "recorded", recorded, "path", dependencyDir)

	return dependencyDir, nil
}

// prepareStagingDir creates dir if needed; an existing directory is kept as is.
func prepareStagingDir(dir string) error {
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	return nil
}

// errArchiveIncomplete is returned when a staged file is missing from the written archive.
var errArchiveIncomplete = errors.New("archive is missing a staged file")

// createArchive zips the staging directory and reads the archive back to make
// sure every staged artifact made it in before anything is uploaded.
func createArchive(release *Release) error {
	if _, err := archive.Create(release.ArchivePath, release.StagingDir); err != nil {
		return err
	}

	entries, err := archive.Entries(release.ArchivePath)
	if err != nil {
		return err
	}

	for _, file := range release.Files {
		if !slices.Contains(entries, file.Name) {
			return fmt.Errorf("%s: %w: %s", release.ArchivePath, errArchiveIncomplete, file.Name)
		}
	}

	return nil
}

// upload publishes the file at path under key.
// Local read failures and interruptions are fatal; anything else the uploader
// returns is a storage error.
func (p *packager) upload(ctx context.Context, key, path, contentType string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s for upload: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	logger.InfoKV(ctx, "Uploading", "key", key, "size", info.Size())

	err = p.uploader.Upload(ctx, &storage.Object{
		Key:         key,
		Body:        file,
		Size:        info.Size(),
		ContentType: contentType,
	})

	p.metrics.RecordUpload(ctx, info.Size(), err)

	if err == nil {
		return nil
	}

	// An interrupted run is not a storage failure, even when the uploader reports it as one.
	if ctx.Err() != nil {
		return fmt.Errorf("upload %s interrupted: %w", key, ctx.Err())
	}

	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		if errors.Is(err, ctxErr) {
			return fmt.Errorf("upload %s interrupted: %w", key, ctxErr)
		}
	}

	var storageErr *storage.Error
	if errors.As(err, &storageErr) {
		return err
	}

	return &storage.Error{
		Bucket: p.cfg.Bucket,
		Key:    key,
		Err:    err,
	}
}

// executableName returns the process name of the deployer on this platform.
func executableName() string {
	if runtime.GOOS == "windows" {
		return version.Name + ".exe"
	}

	return version.Name
}
