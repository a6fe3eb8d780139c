package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/flibidydibidy/graphite-deploy/internal/logger"
)

// ErrLocked is returned when another deploy run holds the marker.
var ErrLocked = errors.New("another deploy is running")

const (
	// MarkerFilename is created inside the deploy directory while a run is in progress.
	MarkerFilename = ".graphite-deploy.marker"

	// DefaultLifetime is the age after which a marker may be considered stale.
	DefaultLifetime = 30 * time.Minute

	// markerFileMode is the permission of the marker file.
	markerFileMode os.FileMode = 0o600
)

// ProcessLister returns the names of the running executables other than the caller.
type ProcessLister func() ([]string, error)

// Marker is an acquired deploy marker.
type Marker struct {
	// path is the marker file location.
	path string
}

// Options tune marker acquisition.
type Options struct {
	// Lifetime is the age after which a marker may be reclaimed. Zero means DefaultLifetime.
	Lifetime time.Duration
	// ProcessName is the executable name of competing deployers.
	ProcessName string
	// Processes lists running executables. Nil means the system process table.
	Processes ProcessLister
}

// Acquire creates the marker inside dir. A fresh marker, or a stale one while
// another ProcessName process runs, yields ErrLocked.
func Acquire(ctx context.Context, dir string, opts Options) (*Marker, error) {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}

	if opts.Processes == nil {
		opts.Processes = otherProcesses
	}

	path := filepath.Join(dir, MarkerFilename)

	logger.DebugKV(ctx, "Checking for a deploy marker", "path", path)

	fileInfo, err := os.Stat(path)

	switch {
	case err == nil:
		if err = reclaim(ctx, path, fileInfo, opts); err != nil {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("stat deploy marker: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLocked
		}

		return nil, fmt.Errorf("create deploy marker: %w", err)
	}

	_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return nil, fmt.Errorf("write deploy marker: %w", err)
	}

	return &Marker{path: path}, nil
}

// reclaim removes an existing marker if it is stale and no other deployer runs.
func reclaim(ctx context.Context, path string, fileInfo os.FileInfo, opts Options) error {
	if time.Since(fileInfo.ModTime()) <= opts.Lifetime {
		return ErrLocked
	}

	logger.Info(ctx, "The deploy marker is too old, checking for running deployers")

	names, err := opts.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, name := range names {
		if name == opts.ProcessName {
			return ErrLocked
		}
	}

	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale deploy marker: %w", err)
	}

	return nil
}

// Path returns the marker file location.
func (m *Marker) Path() string {
	return m.path
}

// Release removes the marker. It is safe to call on a nil Marker.
func (m *Marker) Release() error {
	if m == nil {
		return nil
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove deploy marker: %w", err)
	}

	return nil
}

// otherProcesses lists the executables of every process except the current one.
func otherProcesses() ([]string, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	thisProcessID := os.Getpid()
	names := make([]string, 0, len(processList))

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		names = append(names, process.Executable())
	}

	return names, nil
}
