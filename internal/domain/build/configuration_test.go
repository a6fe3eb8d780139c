package build

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDefaultConfigurations pins the deploy order and the per-architecture suffixes.
func TestDefaultConfigurations(t *testing.T) {
	t.Parallel()

	configs := DefaultConfigurations()
	require.Len(t, configs, 2)
	require.Equal(t, Configuration{BuildDirectory: "build32", Arch: "x86"}, configs[0])
	require.Equal(t, Configuration{BuildDirectory: "build64", Arch: "x64", ExtSuffix: "_64"}, configs[1])
}

// TestLayout_Names checks the release name and object keys derived from a configuration.
func TestLayout_Names(t *testing.T) {
	t.Parallel()

	layout := DefaultLayout()
	x86 := DefaultConfigurations()[0]

	require.Equal(t, "graphite_x86", layout.ReleaseName(x86))
	require.Equal(t, "dist/graphite_x86.zip", layout.ArchiveKey("dist", x86))
	require.Equal(t, "dist/graphite_x86.exe", layout.ExecutableKey("dist", x86))
	require.Equal(t, "graphite_x86.zip", layout.ArchiveKey("", x86))
}

// TestLayout_Artifacts verifies the four artifact paths for both default configurations.
func TestLayout_Artifacts(t *testing.T) {
	t.Parallel()

	layout := DefaultLayout()
	configs := DefaultConfigurations()

	got := layout.Artifacts(configs[0], "/src/build32", "/mnt/c/cv/install")
	require.Equal(t, []string{
		filepath.Join("/src/build32", "graphite", "Release", "graphite.exe"),
		filepath.Join("/src/build32", "3rd", "SDL", "Release", "SDL2.dll"),
		filepath.Join("/mnt/c/cv/install", "x86", "vc16", "bin", "opencv_videoio_ffmpeg453.dll"),
		filepath.Join("/mnt/c/cv/install", "x86", "vc16", "bin", "opencv_world453.dll"),
	}, got)

	got = layout.Artifacts(configs[1], "/src/build64", "/opt/cv")
	require.Len(t, got, 4)
	require.Equal(t, filepath.Join("/opt/cv", "x64", "vc16", "bin", "opencv_videoio_ffmpeg453_64.dll"), got[2])
	require.Equal(t, filepath.Join("/opt/cv", "x64", "vc16", "bin", "opencv_world453.dll"), got[3])
}
