package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flibidydibidy/graphite-deploy/internal/domain/build"
)

// TestDefault_IsValid ensures the built-in settings pass validation unchanged.
func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, "flibidydibidy.com", cfg.Bucket)
	require.Equal(t, "public-read", cfg.ACL)
	require.Equal(t, "dist", cfg.KeyPrefix)
	require.Equal(t, build.DefaultConfigurations(), cfg.Configurations)
}

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Missing bucket.
	cfg := Default()
	cfg.Bucket = "  "
	require.ErrorIs(t, Validate(cfg), errBucketRequired)

	// Unknown ACL.
	cfg = Default()
	cfg.ACL = "world-writable"
	require.ErrorIs(t, Validate(cfg), errUnknownACL)

	// Nothing to deploy.
	cfg = Default()
	cfg.Configurations = nil
	require.ErrorIs(t, Validate(cfg), errNoConfigurations)

	// Missing build directory.
	cfg = Default()
	cfg.Configurations = []build.Configuration{{Arch: "x86"}}
	require.ErrorIs(t, Validate(cfg), errBuildDirectoryRequired)

	// Missing arch.
	cfg = Default()
	cfg.Configurations = []build.Configuration{{BuildDirectory: "build32"}}
	require.ErrorIs(t, Validate(cfg), errArchRequired)

	// Same release twice.
	cfg = Default()
	cfg.Configurations = []build.Configuration{
		{BuildDirectory: "build32", Arch: "x86"},
		{BuildDirectory: "build32-debug", Arch: "x86"},
	}
	require.ErrorIs(t, Validate(cfg), errDuplicateRelease)

	// Empty optional fields get defaults.
	cfg = &Config{
		Bucket:         "example-bucket",
		Configurations: build.DefaultConfigurations(),
	}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultACL, cfg.ACL)
	require.Equal(t, DefaultDeployDir, cfg.DeployDir)
	require.Equal(t, DefaultDependencyKey, cfg.DependencyKey)
	require.Equal(t, build.DefaultLayout(), cfg.Layout)
	require.Empty(t, cfg.MountRoot)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := Default()
	cfg.Bucket = "staging.example.com"
	cfg.Endpoint = "http://127.0.0.1:9000"
	cfg.Configurations = cfg.Configurations[1:]

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_PartialFileKeepsDefaults verifies omitted keys fall back to the built-in values.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bucket: other.example.com\n"), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "other.example.com", cfg.Bucket)
	require.Equal(t, DefaultMountRoot, cfg.MountRoot)
	require.Equal(t, build.DefaultConfigurations(), cfg.Configurations)
}

// TestLoad_Errors covers a missing file and broken YAML.
func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("configurations: [\n"), DefaultFilePermissions))

	_, err = Load(broken)
	require.Error(t, err)
}
