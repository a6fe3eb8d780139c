// Package lock keeps two deploy runs from writing the same deploy directory.
//
// A run creates a marker file and removes it when done. A marker older than its
// lifetime is treated as abandoned once no other deployer process is running.
package lock
