package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// errUnsafeEntry is returned for entries that would be extracted outside the destination.
var errUnsafeEntry = errors.New("archive entry escapes destination")

// defaultDirMode is used for directories created during extraction.
const defaultDirMode os.FileMode = 0o755

// Create writes a deflated ZIP archive of srcDir's contents to dst, replacing dst.
// It returns the names of the entries written, in walk order.
func Create(dst, srcDir string) ([]string, error) {
	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)

	names, walkErr := addDir(zw, srcDir)

	// Close the writer before the file so the central directory is flushed.
	if err = zw.Close(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("finish archive: %w", err)
	}

	if err = out.Close(); err != nil && walkErr == nil {
		walkErr = fmt.Errorf("close archive: %w", err)
	}

	if walkErr != nil {
		return nil, walkErr
	}

	return names, nil
}

// addDir walks srcDir and writes every directory and regular file into zw.
func addDir(zw *zip.Writer, srcDir string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		if relPath == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("create zip header: %w", err)
		}

		header.Name = filepath.ToSlash(relPath)

		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
		} else {
			header.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("write zip header: %w", err)
		}

		names = append(names, header.Name)

		if info.IsDir() {
			return nil
		}

		return copyFile(w, path)
	})
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", srcDir, err)
	}

	return names, nil
}

// copyFile streams the file at path into w.
func copyFile(w io.Writer, path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(w, file); err != nil {
		return fmt.Errorf("write %s to zip: %w", path, err)
	}

	return nil
}

// Entries lists the entry names of the archive at path.
func Entries(path string) ([]string, error) {
	reader, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}

	return names, nil
}

// Extract unpacks the archive at path into dstDir, creating it if needed.
func Extract(path, dstDir string) error {
	reader, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	if err = os.MkdirAll(dstDir, defaultDirMode); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	for _, f := range reader.File {
		if err = extractFile(f, dstDir); err != nil {
			return err
		}
	}

	return nil
}

// extractFile writes a single entry below dstDir.
func extractFile(f *zip.File, dstDir string) error {
	target := filepath.Join(dstDir, filepath.FromSlash(f.Name))

	rel, err := filepath.Rel(dstDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s: %w", f.Name, errUnsafeEntry)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, defaultDirMode)
	}

	if err = os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}

	defer func() {
		_ = src.Close()
	}()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()

		return fmt.Errorf("extract %s: %w", f.Name, err)
	}

	return dst.Close()
}
