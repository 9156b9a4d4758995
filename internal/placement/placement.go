// Package placement maps a file classification to its destination subtree.
// It is a pure policy: no filesystem access, no collision handling.
package placement

import (
	"path/filepath"

	"mediasort/internal/catalog"
)

// DuplicateSuffix is appended to the media kind for duplicate buckets.
const DuplicateSuffix = "_DUPLICATES"

// ReviewDir is the bucket for files whose capture date could not be resolved.
const ReviewDir = "ToReview"

// Decide returns the destination subtree, relative to the destination root,
// for a file of the given kind and resolved date. Duplicates go to the
// per-kind duplicates bucket regardless of date; unresolved dates go to the
// review bucket.
func Decide(kind catalog.MediaKind, year, month string, isDuplicate bool) string {
	if isDuplicate {
		return string(kind) + DuplicateSuffix
	}
	if year == catalog.UnknownDate || month == catalog.UnknownDate || year == "" || month == "" {
		return filepath.Join(ReviewDir, string(kind))
	}
	return filepath.Join(string(kind), year, month)
}

// Buckets lists every top-level directory the policy can produce under the
// destination root. Used by environment reset to know what to remove.
func Buckets() []string {
	return []string{
		string(catalog.KindPhoto),
		string(catalog.KindVideo),
		string(catalog.KindPhoto) + DuplicateSuffix,
		string(catalog.KindVideo) + DuplicateSuffix,
		ReviewDir,
	}
}
