package build

import (
	"path"
	"path/filepath"
)

// Configuration is one build flavour produced by the build system.
type Configuration struct {
	// BuildDirectory is the build tree holding the binaries and CMakeCache.txt.
	BuildDirectory string `yaml:"build_directory"`
	// Arch is the architecture tag used in release names and dependency paths (x86, x64).
	Arch string `yaml:"arch"`
	// ExtSuffix is appended to the name of the per-architecture FFmpeg plugin.
	ExtSuffix string `yaml:"ext_suffix"`
}

// Layout describes how releases and their dependency artifacts are named.
type Layout struct {
	// Product is the stem of every release name.
	Product string `yaml:"product"`
	// DependencyVersion is embedded in the dependency library filenames.
	DependencyVersion string `yaml:"dependency_version"`
	// Toolset is the compiler toolset directory inside the dependency install tree.
	Toolset string `yaml:"toolset"`
}

const (
	// DefaultProduct names the released application.
	DefaultProduct = "graphite"
	// DefaultDependencyVersion is the OpenCV version the binaries link against.
	DefaultDependencyVersion = "453"
	// DefaultToolset is the MSVC toolset directory of the OpenCV install.
	DefaultToolset = "vc16"

	// ArchiveExtension is appended to the release name for archives and their keys.
	ArchiveExtension = ".zip"
	// ExecutableExtension is appended to the release name for the raw executable key.
	ExecutableExtension = ".exe"
)

// DefaultConfigurations returns the 32-bit and 64-bit configurations, in deploy order.
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{BuildDirectory: "build32", Arch: "x86", ExtSuffix: ""},
		{BuildDirectory: "build64", Arch: "x64", ExtSuffix: "_64"},
	}
}

// DefaultLayout returns the layout of the graphite release.
func DefaultLayout() Layout {
	return Layout{
		Product:           DefaultProduct,
		DependencyVersion: DefaultDependencyVersion,
		Toolset:           DefaultToolset,
	}
}

// ReleaseName returns the deterministic name of the release, e.g. graphite_x86.
func (l Layout) ReleaseName(c Configuration) string {
	return l.Product + "_" + c.Arch
}

// ExecutablePath returns the main executable inside the build directory.
func (l Layout) ExecutablePath(buildDir string) string {
	return filepath.Join(buildDir, l.Product, "Release", l.Product+ExecutableExtension)
}

// Artifacts returns the four files of a release in copy order:
// the executable, the bundled SDL runtime, the FFmpeg video plugin and the OpenCV world library.
func (l Layout) Artifacts(c Configuration, buildDir, dependencyDir string) []string {
	binDir := filepath.Join(dependencyDir, c.Arch, l.Toolset, "bin")

	return []string{
		l.ExecutablePath(buildDir),
		filepath.Join(buildDir, "3rd", "SDL", "Release", "SDL2.dll"),
		filepath.Join(binDir, "opencv_videoio_ffmpeg"+l.DependencyVersion+c.ExtSuffix+".dll"),
		filepath.Join(binDir, "opencv_world"+l.DependencyVersion+".dll"),
	}
}

// ArchiveKey returns the object key of the release archive under prefix.
func (l Layout) ArchiveKey(prefix string, c Configuration) string {
	return path.Join(prefix, l.ReleaseName(c)+ArchiveExtension)
}

// ExecutableKey returns the object key of the raw executable under prefix.
func (l Layout) ExecutableKey(prefix string, c Configuration) string {
	return path.Join(prefix, l.ReleaseName(c)+ExecutableExtension)
}
