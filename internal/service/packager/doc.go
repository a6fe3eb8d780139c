// Package packager builds and publishes the per-architecture releases.
//
// For every build configuration it finds the OpenCV install recorded in the
// CMake cache, copies the executable and its libraries into a staging
// directory, zips it, writes a checksum manifest and uploads the archive and
// the raw executable to the release bucket.
//
// A broken configuration stops the run with a ConfigurationError. A storage
// failure abandons the remaining configurations but is not an error of Run:
// it is reported in the Report, as the manual follow-up is still needed.
package packager
