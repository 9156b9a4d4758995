package config

import (
	"runtime"
	"strings"
)

// normalize expands and cleans path fields and canonicalizes extension lists.
// Called by Load before Validate so validation always sees absolute paths.
func (c *Config) normalize() error {
	var err error
	if c.Paths.SourceDir != "" {
		if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
			return err
		}
	}
	if c.Paths.DestinationDir != "" {
		if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
			return err
		}
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Files.ImageExtensions = normalizeExtensions(c.Files.ImageExtensions)
	c.Files.VideoExtensions = normalizeExtensions(c.Files.VideoExtensions)

	c.Hashing.Algorithm = strings.ToLower(strings.TrimSpace(c.Hashing.Algorithm))
	if c.Hashing.Algorithm == "" {
		c.Hashing.Algorithm = defaultHashAlgorithm
	}

	if c.Workers.CPUMultiplier <= 0 {
		c.Workers.CPUMultiplier = defaultCPUMultiplier
	}
	if c.Workers.MaxWorkers <= 0 {
		c.Workers.MaxWorkers = defaultMaxWorkers
	}
	if c.Database.BusyTimeoutMillis <= 0 {
		c.Database.BusyTimeoutMillis = defaultBusyTimeoutMS
	}

	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// WorkerCount resolves the effective pool size: an explicit count wins,
// otherwise min(cpuCount * multiplier, max).
func (c *Config) WorkerCount() int {
	if c.Workers.Count > 0 {
		return c.Workers.Count
	}
	cpus := runtime.NumCPU()
	if cpus <= 0 {
		cpus = 4
	}
	workers := cpus * c.Workers.CPUMultiplier
	if workers > c.Workers.MaxWorkers {
		workers = c.Workers.MaxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
