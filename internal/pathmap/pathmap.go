// Package pathmap rewrites Windows drive-letter paths recorded by the build
// system into the paths the same drives have under a Unix mount root (WSL).
package pathmap

import (
	"path"
	"strings"
)

// Translate maps a drive-letter absolute path such as "C:/cv/install" to
// "<mountRoot>/c/cv/install". Paths without a drive letter, and every path
// when mountRoot is empty, are returned unchanged. Separators after the drive
// are left as recorded.
func Translate(p, mountRoot string) string {
	if mountRoot == "" {
		return p
	}

	drive, rest, ok := splitDrive(p)
	if !ok {
		return p
	}

	return path.Join(mountRoot, strings.ToLower(drive)) + rest
}

// HasDrive reports whether p starts with a drive letter followed by a separator or nothing.
func HasDrive(p string) bool {
	_, _, ok := splitDrive(p)

	return ok
}

// splitDrive splits "C:/x" into "C" and "/x".
// Drive-relative forms like "C:x" are not absolute and are not split.
func splitDrive(p string) (string, string, bool) {
	if len(p) < 2 || p[1] != ':' || !isLetter(p[0]) {
		return "", "", false
	}

	rest := p[2:]
	if rest != "" && rest[0] != '/' && rest[0] != '\\' {
		return "", "", false
	}

	return p[:1], rest, true
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
