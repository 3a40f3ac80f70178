package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file under a bundle root matches.
var ErrNotFound = errors.New("export file not found")

var compressedSuffixes = []string{"", ".gz", ".zst"}

// Locate resolves target to a single export file. A file target is returned
// unchanged. For a directory, patterns are tried in order; each pattern is
// a slash-separated relative path matched at any depth below target, and a
// leading "**/" is accepted. The first match of the first matching pattern
// wins. Compressed variants (.gz, .zst) of a pattern also match.
func Locate(target string, patterns ...string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !info.IsDir() {
		return target, nil
	}

	var files []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			rel, rerr := filepath.Rel(target, path)
			if rerr == nil {
				files = append(files, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "**/")
		for _, rel := range files {
			if matchesPattern(rel, p) {
				return filepath.Join(target, filepath.FromSlash(rel)), nil
			}
		}
	}
	return "", ErrNotFound
}

func matchesPattern(rel, pattern string) bool {
	for _, sfx := range compressedSuffixes {
		want := pattern + sfx
		if rel == want || strings.HasSuffix(rel, "/"+want) {
			return true
		}
	}
	return false
}
