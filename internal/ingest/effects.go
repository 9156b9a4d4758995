package ingest

import (
	"path/filepath"

	"mediasort/internal/catalog"
	"mediasort/internal/fileutil"
	"mediasort/internal/scanner"
)

// effects is the filesystem policy for one run. place resolves the final
// destination of a file within the named bucket (a path relative to the
// destination root) and performs whatever mutation the policy allows.
type effects interface {
	place(file scanner.File, bucket string) (destDir, finalName string, err error)
	primaryStatus() catalog.Status
}

// copyEffects performs real copies. Directories are created lazily and
// collisions resolve through suffixing, so concurrent workers never
// overwrite anything.
type copyEffects struct {
	root string
}

func (e copyEffects) place(file scanner.File, bucket string) (string, string, error) {
	destDir := filepath.Join(e.root, bucket)
	finalPath, err := fileutil.SafeCopy(file.Path, destDir, file.Name)
	if err != nil {
		return "", "", err
	}
	return destDir, filepath.Base(finalPath), nil
}

func (e copyEffects) primaryStatus() catalog.Status { return catalog.StatusCopied }

// simulateEffects computes placements without touching the filesystem. No
// directories are created; collision probing runs against whatever already
// exists on disk.
type simulateEffects struct {
	root string
}

func (e simulateEffects) place(file scanner.File, bucket string) (string, string, error) {
	destDir := filepath.Join(e.root, bucket)
	return destDir, fileutil.CollisionFreeName(destDir, file.Name), nil
}

func (e simulateEffects) primaryStatus() catalog.Status { return catalog.StatusSimulated }
