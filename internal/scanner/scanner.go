// Package scanner walks the source tree and classifies files for ingestion.
//
// The walk is single-threaded and deterministic (lexical order per
// fs.WalkDir). Exclusion rules drop files silently; unsupported files are
// reported synchronously through the callback so they are recorded before
// any concurrent processing begins. Symlinks are not followed.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// File is a single candidate discovered by the walk.
type File struct {
	Path string // absolute path
	Name string // base name
	Size int64
}

// Rules controls which files the walk yields.
type Rules struct {
	// ExcludeHidden drops any file with a dot-prefixed segment in its
	// path relative to the root.
	ExcludeHidden bool
	// ExcludePatterns drops files whose relative path contains any of
	// these substrings.
	ExcludePatterns []string
	// Supported reports whether a file name carries a supported media
	// extension.
	Supported func(name string) bool
}

// Summary counts the walk's outcomes.
type Summary struct {
	Supported   int
	Unsupported int
	Excluded    int
}

// Scan walks root and invokes onSupported for every supported media file and
// onUnsupported for every non-excluded file of any other type. A non-nil
// error from either callback aborts the walk.
func Scan(ctx context.Context, root string, rules Rules, onSupported, onUnsupported func(File) error) (Summary, error) {
	var summary Summary
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if path != root && rules.excluded(rel+string(filepath.Separator)) {
				summary.Excluded++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if rules.excluded(rel) {
			summary.Excluded++
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", path, infoErr)
		}
		file := File{Path: path, Name: d.Name(), Size: info.Size()}
		if rules.Supported != nil && rules.Supported(file.Name) {
			summary.Supported++
			return onSupported(file)
		}
		summary.Unsupported++
		return onUnsupported(file)
	})
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (r Rules) excluded(rel string) bool {
	if r.ExcludeHidden {
		for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
			if strings.HasPrefix(segment, ".") && segment != "." && segment != ".." {
				return true
			}
		}
	}
	for _, pattern := range r.ExcludePatterns {
		if pattern != "" && strings.Contains(rel, pattern) {
			return true
		}
	}
	return false
}
