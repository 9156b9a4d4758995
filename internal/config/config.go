package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database location configuration.
type Paths struct {
	SourceDir      string `toml:"source_dir"`
	DestinationDir string `toml:"destination_dir"`
	DatabasePath   string `toml:"database_path"`
	LogDir         string `toml:"log_dir"`
}

// Files contains the extension classification lists.
type Files struct {
	ImageExtensions []string `toml:"image_extensions"`
	VideoExtensions []string `toml:"video_extensions"`
}

// Exclude contains scan exclusion rules.
type Exclude struct {
	Hidden   bool     `toml:"hidden"`
	Patterns []string `toml:"patterns"`
}

// Workers contains worker pool sizing. Count takes precedence when positive;
// otherwise the pool is sized as min(cpuCount * CPUMultiplier, MaxWorkers).
type Workers struct {
	Count         int `toml:"count"`
	CPUMultiplier int `toml:"cpu_multiplier"`
	MaxWorkers    int `toml:"max_workers"`
}

// Hashing selects the content fingerprint implementation.
type Hashing struct {
	Algorithm string `toml:"algorithm"`
}

// Database contains tracking store tuning knobs.
type Database struct {
	VacuumOnCompletion bool `toml:"vacuum_on_completion"`
	BusyTimeoutMillis  int  `toml:"busy_timeout_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: source/destination trees, database file, log directory
//   - Files: image/video extension classification
//   - Exclude: hidden-path and substring exclusion rules for the scanner
//   - Workers: ingestion worker pool sizing
//   - Hashing: content fingerprint algorithm selection
//   - Database: tracking store maintenance knobs
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Files    Files    `toml:"files"`
	Exclude  Exclude  `toml:"exclude"`
	Workers  Workers  `toml:"workers"`
	Hashing  Hashing  `toml:"hashing"`
	Database Database `toml:"database"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Overrides replaces selected path settings before validation. Empty fields
// keep the file's values.
type Overrides struct {
	SourceDir      string
	DestinationDir string
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides is Load with command-line path overrides applied between
// parsing and validation.
func LoadWithOverrides(path string, overrides Overrides) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if overrides.SourceDir != "" {
		cfg.Paths.SourceDir = overrides.SourceDir
	}
	if overrides.DestinationDir != "" {
		cfg.Paths.DestinationDir = overrides.DestinationDir
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ResolvePath reports which configuration file a given flag value would load
// and whether it exists yet.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before any worker starts.
// The source tree is deliberately excluded: it must already exist.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DestinationDir, c.Paths.LogDir}
	if c.Paths.DatabasePath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.DatabasePath))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SupportedExtensions returns the union of image and video extensions,
// lowercased, as a lookup set.
func (c *Config) SupportedExtensions() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Files.ImageExtensions)+len(c.Files.VideoExtensions))
	for _, ext := range c.Files.ImageExtensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range c.Files.VideoExtensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

// IsImage reports whether the extension (with leading dot) is an image extension.
func (c *Config) IsImage(ext string) bool {
	return containsFold(c.Files.ImageExtensions, ext)
}

// IsVideo reports whether the extension (with leading dot) is a video extension.
func (c *Config) IsVideo(ext string) bool {
	return containsFold(c.Files.VideoExtensions, ext)
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
