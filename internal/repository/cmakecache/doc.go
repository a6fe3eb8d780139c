// Package cmakecache reads variables from a CMake build cache.
//
// CMakeCache.txt holds one KEY:TYPE=VALUE entry per line. The package only
// supports the lookup the deployer needs: the value of the first line starting
// with a given key.
package cmakecache
