// Package pathguard validates caller-supplied project paths before any
// filesystem traversal happens. Validation is pure: it resolves the path
// to a canonical absolute form and checks it against a denylist of
// system directories. Callers must never traverse a path that has not
// passed Validate.
package pathguard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath means the input could not be resolved to an existing
	// canonical path (nonexistent, permission denied, broken symlink).
	ErrInvalidPath = errors.New("invalid path")

	// ErrAccessDenied means the resolved path sits inside a denylisted
	// system directory.
	ErrAccessDenied = errors.New("access denied")
)

// blockedPrefixes are system roots that must never be scanned. A path is
// rejected when it equals one of these or is a proper subdirectory of one.
var blockedPrefixes = []string{
	"/etc",
	"/proc",
	"/sys",
	"/dev",
	"/boot",
	"/root",
	"/bin",
	"/sbin",
	"/usr/bin",
	"/usr/sbin",
	"/var/log",
	"/var/lib",
}

// Validate resolves the supplied path to a canonical absolute path and
// checks it against the denylist. It returns the canonical path on
// success. The filesystem root itself is always rejected.
func Validate(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	// EvalSymlinks both canonicalizes and confirms existence: a
	// nonexistent path, a broken link, or an unreadable parent all fail
	// here and surface as InvalidPath.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve %q: %v", ErrInvalidPath, trimmed, err)
	}
	resolved = filepath.Clean(resolved)

	if resolved == string(filepath.Separator) {
		return "", fmt.Errorf("%w: scanning the filesystem root is not allowed", ErrAccessDenied)
	}

	for _, blocked := range blockedPrefixes {
		if resolved == blocked || strings.HasPrefix(resolved, blocked+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: path %q is inside restricted directory %s", ErrAccessDenied, trimmed, blocked)
		}
	}

	return resolved, nil
}

// BlockedPrefixes returns a copy of the denylist, primarily for status
// reporting and tests.
func BlockedPrefixes() []string {
	out := make([]string, len(blockedPrefixes))
	copy(out, blockedPrefixes)
	return out
}
