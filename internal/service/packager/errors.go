package packager

import "fmt"

// ConfigurationError is returned when a build configuration cannot be packaged
// because its build cache does not point at the dependency install.
type ConfigurationError struct {
	// BuildDirectory is the build tree of the failing configuration.
	BuildDirectory string
	// CachePath is the build-cache file that was searched.
	CachePath string
	// Key is the build-cache variable that was looked up.
	Key string
	// Err is the lookup failure.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("build configuration %s: look up %s in %s: %v", e.BuildDirectory, e.Key, e.CachePath, e.Err)
}

// Unwrap returns the lookup failure.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
