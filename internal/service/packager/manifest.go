package packager

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flibidydibidy/graphite-deploy/internal/version"
)

// manifestExtension is appended to the release name for the manifest file.
const manifestExtension = ".yaml"

// Manifest records what went into a release archive.
type Manifest struct {
	// Release is the release name.
	Release string `yaml:"release"`
	// Arch is the architecture tag.
	Arch string `yaml:"arch"`
	// Deployer is the version of the tool that built the release.
	Deployer string `yaml:"deployer"`
	// RunID identifies the run in the logs.
	RunID string `yaml:"run_id"`
	// CreatedAt is when the manifest was written.
	CreatedAt time.Time `yaml:"created_at"`
	// DependencyDir is the OpenCV install the libraries came from.
	DependencyDir string `yaml:"dependency_dir"`
	// Archive is the base name of the archive.
	Archive string `yaml:"archive"`
	// Files maps staged filenames to base64-encoded SHA-512 checksums.
	Files map[string]string `yaml:"files"`
}

// writeManifest stores the manifest of release next to its archive.
func (p *packager) writeManifest(release *Release) error {
	manifest := &Manifest{
		Release:       release.Name,
		Arch:          release.Arch,
		Deployer:      version.Short(),
		RunID:         p.runID,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		DependencyDir: release.DependencyDir,
		Archive:       filepath.Base(release.ArchivePath),
		Files:         make(map[string]string, len(release.Files)),
	}

	for _, file := range release.Files {
		manifest.Files[file.Name] = base64.StdEncoding.EncodeToString(file.Checksum)
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(release.ManifestPath, contents, 0o644); err != nil { //nolint:gosec // Manifest is public.
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
