package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. Path-safety violations are
// fatal here, before any processing starts, because a bad source/destination
// pair risks data loss once workers begin copying.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFiles(); err != nil {
		return err
	}
	if err := c.validateHashing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	source := strings.TrimSpace(c.Paths.SourceDir)
	dest := strings.TrimSpace(c.Paths.DestinationDir)

	if source == "" {
		return errors.New("paths.source_dir must be set")
	}
	if dest == "" {
		return errors.New("paths.destination_dir must be set")
	}

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("paths.source_dir %q does not exist", source)
		}
		return fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("paths.source_dir %q is not a directory", source)
	}

	if source == dest {
		return fmt.Errorf("source and destination are the same directory (%s); refusing to run", source)
	}
	if isSubpath(source, dest) {
		return fmt.Errorf("destination %q is inside source %q; refusing to run", dest, source)
	}
	if isSubpath(dest, source) {
		return fmt.Errorf("source %q is inside destination %q; refusing to run", source, dest)
	}

	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

// isSubpath reports whether child is strictly contained in parent. Both paths
// must already be absolute and cleaned (normalize guarantees this).
func isSubpath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *Config) validateFiles() error {
	if len(c.Files.ImageExtensions) == 0 {
		return errors.New("files.image_extensions must not be empty")
	}
	if len(c.Files.VideoExtensions) == 0 {
		return errors.New("files.video_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateHashing() error {
	switch c.Hashing.Algorithm {
	case "sha256", "xxh64":
		return nil
	default:
		return fmt.Errorf("hashing.algorithm: unsupported value %q (expected sha256 or xxh64)", c.Hashing.Algorithm)
	}
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
