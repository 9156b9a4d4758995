package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"mediasort/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	source := filepath.Join(base, "source")
	dest := filepath.Join(base, "dest")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	return source, dest
}

func TestLoadAppliesDefaults(t *testing.T) {
	source, dest := testPaths(t)
	path := writeConfig(t, `
[paths]
source_dir = "`+source+`"
destination_dir = "`+dest+`"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved path %q to exist, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Hashing.Algorithm != "sha256" {
		t.Fatalf("unexpected default algorithm: %q", cfg.Hashing.Algorithm)
	}
	if !cfg.Database.VacuumOnCompletion {
		t.Fatal("expected vacuum_on_completion default true")
	}
	if got := cfg.WorkerCount(); got < 1 || got > cfg.Workers.MaxWorkers {
		t.Fatalf("worker count out of range: %d", got)
	}
}

func TestLoadRejectsMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "dest")
	path := writeConfig(t, `
[paths]
source_dir = "`+filepath.Join(t.TempDir(), "nope")+`"
destination_dir = "`+dest+`"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestLoadRejectsNestedDestination(t *testing.T) {
	source, _ := testPaths(t)
	nested := filepath.Join(source, "organized")
	path := writeConfig(t, `
[paths]
source_dir = "`+source+`"
destination_dir = "`+nested+`"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when destination nests inside source")
	}
}

func TestLoadRejectsSourceEqualsDestination(t *testing.T) {
	source, _ := testPaths(t)
	path := writeConfig(t, `
[paths]
source_dir = "`+source+`"
destination_dir = "`+source+`"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when source equals destination")
	}
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	source, dest := testPaths(t)
	path := writeConfig(t, `
[paths]
source_dir = "`+source+`"
destination_dir = "`+dest+`"

[hashing]
algorithm = "crc32"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported hash algorithm")
	}
}

func TestExtensionNormalization(t *testing.T) {
	source, dest := testPaths(t)
	path := writeConfig(t, `
[paths]
source_dir = "`+source+`"
destination_dir = "`+dest+`"

[files]
image_extensions = ["JPG", ".Jpeg", "jpg"]
video_extensions = [".MP4"]
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Files.ImageExtensions) != 2 {
		t.Fatalf("expected deduplicated extensions, got %v", cfg.Files.ImageExtensions)
	}
	if !cfg.IsImage(".jpg") || !cfg.IsImage(".jpeg") {
		t.Fatalf("expected .jpg/.jpeg classified as images: %v", cfg.Files.ImageExtensions)
	}
	if !cfg.IsVideo(".mp4") {
		t.Fatal("expected .mp4 classified as video")
	}
	if _, ok := cfg.SupportedExtensions()[".mp4"]; !ok {
		t.Fatal("expected .mp4 in supported set")
	}
}
