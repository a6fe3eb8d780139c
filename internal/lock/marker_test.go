package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// noProcesses is a ProcessLister reporting an idle machine.
func noProcesses() ([]string, error) {
	return nil, nil
}

// TestAcquireRelease covers the normal lifecycle and a second acquisition while held.
func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	opts := Options{ProcessName: "graphite-deploy", Processes: noProcesses}

	marker, err := Acquire(ctx, dir, opts)
	require.NoError(t, err)
	require.FileExists(t, marker.Path())

	_, err = Acquire(ctx, dir, opts)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, marker.Release())
	require.NoFileExists(t, marker.Path())

	// Releasing twice and releasing nil are harmless.
	require.NoError(t, marker.Release())
	require.NoError(t, (*Marker)(nil).Release())

	marker, err = Acquire(ctx, dir, opts)
	require.NoError(t, err)
	require.NoError(t, marker.Release())
}

// TestAcquire_StaleMarker reclaims an old marker only when no deployer process runs.
func TestAcquire_StaleMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, MarkerFilename)

	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o600))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	busy := Options{
		ProcessName: "graphite-deploy",
		Processes: func() ([]string, error) {
			return []string{"bash", "graphite-deploy"}, nil
		},
	}

	_, err := Acquire(ctx, dir, busy)
	require.ErrorIs(t, err, ErrLocked)

	idle := Options{ProcessName: "graphite-deploy", Processes: noProcesses}

	marker, err := Acquire(ctx, dir, idle)
	require.NoError(t, err)
	require.NoError(t, marker.Release())
}

// TestAcquire_MissingDirectory fails with a wrapped filesystem error.
func TestAcquire_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Acquire(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{Processes: noProcesses})
	require.ErrorIs(t, err, os.ErrNotExist)
}
