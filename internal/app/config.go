package app

import (
	"io"

	"mcphub/internal/supervisor"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// ConfigPath is the directory holding config.yaml and .env. Empty selects
	// the user config directory.
	ConfigPath string

	// Version is reported in the initialize result.
	Version string

	// LogOutput defaults to stdout.
	LogOutput io.Writer

	// Launcher overrides how bridge processes are started. Nil uses
	// supervisor.ExecLauncher.
	Launcher supervisor.Launcher
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, version string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Version:    version,
	}
}
