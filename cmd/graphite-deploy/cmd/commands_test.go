package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flibidydibidy/graphite-deploy/internal/archive"
	"github.com/flibidydibidy/graphite-deploy/internal/config"
)

// TestConfigCommand writes the default settings once and refuses to overwrite without --force.
func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphite-deploy.yaml")

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", path})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default(), loaded)

	rootCmd.SetArgs([]string{"config", path})
	require.ErrorIs(t, rootCmd.Execute(), errSettingsExist)

	rootCmd.SetArgs([]string{"config", "--force", path})
	require.NoError(t, rootCmd.Execute())

	forceOverwrite = false
}

// TestRootCommand_RejectsUnknownLogLevel fails before any packaging work.
func TestRootCommand_RejectsUnknownLogLevel(t *testing.T) {
	rootCmd.SetArgs([]string{"--log-level", "loud", "--workdir", t.TempDir()})
	require.ErrorIs(t, rootCmd.Execute(), errUnknownLogLevel)

	logLevel = "info"
}

// TestUnpackCommand extracts an archive built by the archive package.
func TestUnpackCommand(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "graphite.exe"), []byte("MZ"), 0o644))

	zipPath := filepath.Join(t.TempDir(), "graphite_x86.zip")
	_, err := archive.Create(zipPath, src)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"unpack", zipPath, dst})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "Extracted 1 entries")

	got, err := os.ReadFile(filepath.Join(dst, "graphite.exe"))
	require.NoError(t, err)
	require.Equal(t, "MZ", string(got))
}
