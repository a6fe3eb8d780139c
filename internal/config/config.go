package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"gopkg.in/yaml.v3"

	"github.com/flibidydibidy/graphite-deploy/internal/domain/build"
)

// Config holds the deployment settings shared by the CLI and the packager.
type Config struct {
	// Bucket is the object-storage bucket receiving the releases.
	Bucket string `yaml:"bucket"`
	// Region overrides the region from the ambient AWS environment.
	Region string `yaml:"region,omitempty"`
	// Endpoint points the client at an S3-compatible store instead of AWS.
	Endpoint string `yaml:"endpoint,omitempty"`
	// ACL is the canned ACL applied to every uploaded object.
	ACL string `yaml:"acl"`
	// KeyPrefix is the folder inside the bucket holding the releases.
	KeyPrefix string `yaml:"key_prefix"`
	// DeployDir is the local folder holding staging directories, archives and manifests.
	DeployDir string `yaml:"deploy_dir"`
	// CacheFilename is the build-cache file looked up inside every build directory.
	CacheFilename string `yaml:"cache_filename"`
	// DependencyKey is the build-cache variable holding the dependency install root.
	DependencyKey string `yaml:"dependency_key"`
	// MountRoot is where drive letters are mounted; empty disables translation.
	MountRoot string `yaml:"mount_root"`
	// Reminder is logged once the run is over.
	Reminder string `yaml:"reminder"`
	// Layout names the release and its artifacts.
	Layout build.Layout `yaml:"layout"`
	// Configurations are deployed in order.
	Configurations []build.Configuration `yaml:"configurations"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "graphite-deploy.yaml"

	// DefaultBucket receives the public downloads.
	DefaultBucket = "flibidydibidy.com"

	// DefaultACL makes the uploaded objects downloadable by anyone.
	DefaultACL = string(types.ObjectCannedACLPublicRead)

	// DefaultKeyPrefix is the bucket folder the website links to.
	DefaultKeyPrefix = "dist"

	// DefaultDeployDir is the local output folder.
	DefaultDeployDir = "deploy"

	// DefaultCacheFilename is the CMake cache written into every build directory.
	DefaultCacheFilename = "CMakeCache.txt"

	// DefaultDependencyKey is the CMake variable pointing at the OpenCV install.
	DefaultDependencyKey = "OpenCV_DIR"

	// DefaultMountRoot is where WSL mounts Windows drives.
	DefaultMountRoot = "/mnt"

	// DefaultReminder is the manual step left after an upload.
	DefaultReminder = "update the version in flibidydibidycom"

	// DefaultFilePermissions is the permission of settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBucketRequired is returned when no bucket is configured.
	errBucketRequired = errors.New("bucket must be provided")
	// errUnknownACL is returned for an ACL that is not an S3 canned ACL.
	errUnknownACL = errors.New("unknown canned ACL")
	// errNoConfigurations is returned when there is nothing to deploy.
	errNoConfigurations = errors.New("at least one build configuration must be provided")
	// errBuildDirectoryRequired is returned for a configuration without build directory.
	errBuildDirectoryRequired = errors.New("build directory must be provided")
	// errArchRequired is returned for a configuration without architecture tag.
	errArchRequired = errors.New("architecture tag must be provided")
	// errDuplicateRelease is returned when two configurations share a release name.
	errDuplicateRelease = errors.New("duplicate release name")
)

// Default returns the built-in settings: the public bucket and the two graphite builds.
func Default() *Config {
	return &Config{
		Bucket:         DefaultBucket,
		ACL:            DefaultACL,
		KeyPrefix:      DefaultKeyPrefix,
		DeployDir:      DefaultDeployDir,
		CacheFilename:  DefaultCacheFilename,
		DependencyKey:  DefaultDependencyKey,
		MountRoot:      DefaultMountRoot,
		Reminder:       DefaultReminder,
		Layout:         build.DefaultLayout(),
		Configurations: build.DefaultConfigurations(),
	}
}

// Load reads settings from the provided path on top of the defaults and validates them.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills empty optional fields with defaults and rejects unusable settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	if cfg.Bucket == "" {
		return errBucketRequired
	}

	if cfg.ACL == "" {
		cfg.ACL = DefaultACL
	}

	if !slices.Contains(types.ObjectCannedACL("").Values(), types.ObjectCannedACL(cfg.ACL)) {
		return fmt.Errorf("%w: %s", errUnknownACL, cfg.ACL)
	}

	fillDefaults(cfg)

	if len(cfg.Configurations) == 0 {
		return errNoConfigurations
	}

	seen := make(map[string]struct{}, len(cfg.Configurations))

	for i, c := range cfg.Configurations {
		if strings.TrimSpace(c.BuildDirectory) == "" {
			return fmt.Errorf("configuration #%d: %w", i+1, errBuildDirectoryRequired)
		}

		if strings.TrimSpace(c.Arch) == "" {
			return fmt.Errorf("configuration #%d: %w", i+1, errArchRequired)
		}

		name := cfg.Layout.ReleaseName(c)
		if _, found := seen[name]; found {
			return fmt.Errorf("%w: %s", errDuplicateRelease, name)
		}

		seen[name] = struct{}{}
	}

	return nil
}

// fillDefaults sets every empty optional field to its built-in value.
// MountRoot and KeyPrefix stay as given: empty values are meaningful for them.
func fillDefaults(cfg *Config) {
	if cfg.DeployDir == "" {
		cfg.DeployDir = DefaultDeployDir
	}

	if cfg.CacheFilename == "" {
		cfg.CacheFilename = DefaultCacheFilename
	}

	if cfg.DependencyKey == "" {
		cfg.DependencyKey = DefaultDependencyKey
	}

	if cfg.Reminder == "" {
		cfg.Reminder = DefaultReminder
	}

	defaults := build.DefaultLayout()

	if cfg.Layout.Product == "" {
		cfg.Layout.Product = defaults.Product
	}

	if cfg.Layout.DependencyVersion == "" {
		cfg.Layout.DependencyVersion = defaults.DependencyVersion
	}

	if cfg.Layout.Toolset == "" {
		cfg.Layout.Toolset = defaults.Toolset
	}
}
