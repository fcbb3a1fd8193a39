// Package fileops provides bounded, security-conscious filesystem
// traversal for project scanning. The walker operates inside an os.Root
// boundary so symlinks cannot escape the scan area, and it enforces hard
// caps on file count and per-file size so a scan over an arbitrarily
// large tree stays cheap.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// WalkOptions configures a bounded walk.
type WalkOptions struct {
	// MaxFiles caps the number of collected files. The walk stops the
	// moment the cap is reached, even if directories remain unvisited:
	// on very large trees results are a best-effort sample, not a
	// complete enumeration.
	MaxFiles int

	// MaxFileSize excludes files larger than this many bytes. The size
	// comes from a metadata stat, never a full read. Zero means no limit.
	MaxFileSize int64

	// Extensions is a lowercase extension allowlist (".py", ".go", ...).
	// Used when Names is empty.
	Extensions []string

	// Names is an exact-filename allowlist ("requirements.txt", ...).
	// When non-empty it takes precedence over Extensions.
	Names []string

	// SkipDirs contains directory names skipped during traversal.
	// Matched by name, not full path.
	SkipDirs []string

	// IncludeHidden includes dot-files and dot-directories when true.
	IncludeHidden bool
}

// DefaultSkipDirs returns directory names that are traversal noise in
// essentially every project tree.
func DefaultSkipDirs() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"target",
		"build",
		".next",
		"dist",
		".cache",
		"__pycache__",
		".venv",
		"venv",
		".vscode",
		".idea",
	}
}

// Walk collects file paths under root that match the options, breadth
// first. It uses an explicit work queue rather than recursion so deep
// trees cannot grow the stack. Returned paths are relative to root, in
// traversal order.
//
// Directory read failures (permissions, entries deleted mid-walk) are
// swallowed per directory; the walk continues with siblings. The only
// hard failure is being unable to open the root itself.
func Walk(root string, opts WalkOptions) ([]string, error) {
	if opts.SkipDirs == nil {
		opts.SkipDirs = DefaultSkipDirs()
	}

	// os.Root pins the traversal inside root: symlinked directories that
	// point outside the boundary fail to open and are skipped like any
	// other unreadable entry.
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("cannot open scan root: %w", err)
	}
	defer r.Close()

	var matched []string
	queue := []string{"."}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		f, err := r.Open(dir)
		if err != nil {
			continue
		}
		entries, err := f.ReadDir(-1)
		f.Close()
		if err != nil {
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}

			rel := name
			if dir != "." {
				rel = filepath.Join(dir, name)
			}

			if entry.IsDir() {
				if slices.Contains(opts.SkipDirs, name) {
					continue
				}
				queue = append(queue, rel)
				continue
			}

			// Regular files only: symlinked files are excluded so later
			// reads cannot follow a link outside the boundary.
			if !entry.Type().IsRegular() {
				continue
			}

			if !matchName(name, opts) {
				continue
			}

			if opts.MaxFileSize > 0 {
				info, err := entry.Info()
				if err != nil || info.Size() > opts.MaxFileSize {
					continue
				}
			}

			matched = append(matched, rel)
			if opts.MaxFiles > 0 && len(matched) >= opts.MaxFiles {
				return matched, nil
			}
		}
	}

	return matched, nil
}

func matchName(name string, opts WalkOptions) bool {
	if len(opts.Names) > 0 {
		return slices.Contains(opts.Names, name)
	}
	if len(opts.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(name))
		return slices.Contains(opts.Extensions, ext)
	}
	return true
}
