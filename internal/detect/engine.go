// Package detect applies named pattern sets to file contents, mapping
// detection categories to the files that matched. The engine itself is
// data-driven: per-framework and per-signal knowledge lives entirely in
// the pattern tables, never in engine branching.
package detect

import (
	"os"
	"path/filepath"
)

// FileMatch records the categories that matched a single file.
type FileMatch struct {
	File       string   `json:"file"`
	Categories []string `json:"frameworks"`
}

// Result is the immutable outcome of one detection pass.
type Result struct {
	// FilesScanned counts every file the engine attempted to read,
	// including files that were skipped as unreadable.
	FilesScanned int

	// Matches maps category name to the files (relative to the scan
	// root) attributed to that category. A file appears at most once
	// per category. No match anywhere yields an empty map, not an error.
	Matches map[string][]string

	// Files holds per-file category sets for files with at least one
	// match, in traversal order.
	Files []FileMatch
}

// Scan reads each file under root and tests every pattern set against
// its content. Patterns within a category are tried in order and the
// first hit attributes the file to that category; remaining patterns in
// that category are skipped. A file that cannot be read is skipped
// silently: a single unreadable file must never abort the scan.
func Scan(root string, files []string, sets []PatternSet) Result {
	res := Result{Matches: make(map[string][]string)}

	for _, rel := range files {
		res.FilesScanned++

		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}

		var hits []string
		for _, set := range sets {
			for _, pattern := range set.Patterns {
				if pattern.Match(content) {
					hits = append(hits, set.Category)
					res.Matches[set.Category] = append(res.Matches[set.Category], rel)
					break
				}
			}
		}

		if len(hits) > 0 {
			res.Files = append(res.Files, FileMatch{File: rel, Categories: hits})
		}
	}

	return res
}

// Categories returns the category names present in the result, in the
// order the pattern sets were declared.
func (r Result) Categories(sets []PatternSet) []string {
	var out []string
	for _, set := range sets {
		if len(r.Matches[set.Category]) > 0 {
			out = append(out, set.Category)
		}
	}
	return out
}
