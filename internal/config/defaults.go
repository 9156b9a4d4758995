package config

const (
	defaultDatabasePath  = "~/.local/share/mediasort/catalog.db"
	defaultLogDir        = "~/.local/share/mediasort/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultCPUMultiplier = 2
	defaultMaxWorkers    = 16
	defaultBusyTimeoutMS = 5000
	defaultHashAlgorithm = "sha256"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
		},
		Files: Files{
			ImageExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif",
				".heic", ".heif", ".webp", ".dng", ".cr2", ".nef", ".arw", ".raf",
			},
			VideoExtensions: []string{
				".mp4", ".mov", ".avi", ".mkv", ".m4v", ".mts", ".m2ts",
				".3gp", ".wmv", ".webm",
			},
		},
		Exclude: Exclude{
			Hidden: true,
		},
		Workers: Workers{
			CPUMultiplier: defaultCPUMultiplier,
			MaxWorkers:    defaultMaxWorkers,
		},
		Hashing: Hashing{
			Algorithm: defaultHashAlgorithm,
		},
		Database: Database{
			VacuumOnCompletion: true,
			BusyTimeoutMillis:  defaultBusyTimeoutMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
