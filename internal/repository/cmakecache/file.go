package cmakecache

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrKeyNotFound is returned when no line of the cache starts with the key.
	ErrKeyNotFound = errors.New("key not found in build cache")
	// ErrMalformedLine is returned when the matching line carries no value separator.
	ErrMalformedLine = errors.New("build cache line has no value")
)

// maxLineSize bounds a single cache line; long PATH lists can exceed bufio's default.
const maxLineSize = 1 << 20

// File is a build-cache file on disk.
type File struct {
	// path is the filesystem location of the cache file.
	path string
}

// Open returns a File reading the cache at path. The file is read on each Lookup.
func Open(path string) *File {
	return &File{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the cache file.
func (f *File) Path() string {
	return f.path
}

// Lookup scans the cache in order and returns the trimmed value after the first "="
// of the first line that starts with key.
func (f *File) Lookup(key string) (string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return "", fmt.Errorf("open build cache: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, key) {
			continue
		}

		_, value, found := strings.Cut(line, "=")
		if !found {
			return "", fmt.Errorf("%s: %w", key, ErrMalformedLine)
		}

		return strings.TrimSpace(value), nil
	}

	if err = scanner.Err(); err != nil {
		return "", fmt.Errorf("read build cache: %w", err)
	}

	return "", fmt.Errorf("%s: %w", key, ErrKeyNotFound)
}
