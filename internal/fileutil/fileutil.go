package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates the directory (and parents) if missing. Idempotent and
// safe under concurrent callers.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// CopyFile streams src to dst with default permissions (0o644) and preserves
// the source modification time.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// SafeCopy copies src into destDir under the preferred name, creating
// intermediate directories and never overwriting: when the name is taken the
// stem gains a numeric suffix (photo.jpg, photo__1.jpg, photo__2.jpg, ...).
// Returns the final path the file landed at.
func SafeCopy(src, destDir, name string) (string, error) {
	if err := EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("ensure destination dir: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	target := filepath.Join(destDir, name)
	for counter := 1; ; counter++ {
		err := CopyFile(src, target)
		if err == nil {
			return target, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("copy %s: %w", src, err)
		}
		target = filepath.Join(destDir, fmt.Sprintf("%s__%d%s", stem, counter, ext))
	}
}

// CollisionFreeName returns the name SafeCopy would choose in destDir without
// copying anything. Used by dry runs to report the simulated target.
func CollisionFreeName(destDir, name string) string {
	target := filepath.Join(destDir, name)
	if _, err := os.Stat(target); err != nil {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s__%d%s", stem, counter, ext)
		if _, err := os.Stat(filepath.Join(destDir, candidate)); err != nil {
			return candidate
		}
	}
}
