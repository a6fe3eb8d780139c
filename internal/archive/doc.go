// Package archive builds and reads the ZIP archives published for every release.
//
// Entry names are relative to the archived directory and use forward slashes,
// so extracting an archive reproduces the directory it was built from.
package archive
