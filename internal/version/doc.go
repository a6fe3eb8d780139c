// Package version exposes build metadata for the deployer.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// The version is written into every release manifest and sent to the object
// store as the application ID.
package version
