// Package build describes what a deploy run works on: the build configurations,
// the release layout that names artifacts, and the object keys derived from them.
package build
