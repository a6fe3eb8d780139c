package packager

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultFileMode is the mode of staged artifacts.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to verify staged copies and fill manifests.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// StagedFile is an artifact copied into a staging directory.
type StagedFile struct {
	// Name is the base filename inside the staging directory.
	Name string
	// Source is the path the artifact was copied from.
	Source string
	// Size is the length of the artifact in bytes.
	Size int64
	// Checksum is the DefaultChecksumFunction digest of the contents.
	Checksum []byte
}

// stageFile copies src into dir under its base name, replacing any existing file.
// The copy is written next to the target, checked against the source digest and
// renamed into place, so a failed copy never leaves a truncated artifact.
func stageFile(src, dir string) (*StagedFile, error) {
	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	checksum, err := checksumOf(data)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(src)
	if err = writeStaged(filepath.Join(dir, name), data, checksum); err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}

	return &StagedFile{
		Name:     name,
		Source:   src,
		Size:     int64(len(data)),
		Checksum: checksum,
	}, nil
}

// writeStaged replaces target with data once data matches checksum.
// A placeholder created for the swap is removed again if the swap fails.
func writeStaged(target string, data, checksum []byte) error {
	// The updater swaps files by renaming the current one away, so it must exist.
	created, err := ensureFile(target)
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if created {
			_ = os.Remove(target)
		}

		return err
	}

	return nil
}

// ensureFile creates an empty file at path unless one exists
// and reports whether it did.
func ensureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, DefaultFileMode)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}

	return true, file.Close()
}

// checksumOf returns the DefaultChecksumFunction digest of data.
func checksumOf(data []byte) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
