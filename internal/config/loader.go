package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mcphub/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/mcphub"
	configFileName = "config.yaml"
	dotEnvFileName = ".env"
)

// Environment variables that override file configuration.
const (
	EnvHost     = "MCPHUB_HOST"
	EnvPort     = "MCPHUB_PORT"
	EnvBackends = "MCPHUB_BACKENDS"
	EnvLogLevel = "MCPHUB_LOG_LEVEL"
)

// Indirections so tests can run without touching the real environment.
var (
	osUserHomeDir = os.UserHomeDir
	lookupEnv     = os.LookupEnv
)

// GetDefaultConfigPath returns ~/.config/mcphub.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file in dir into the process
// environment. Variables already set are not overridden. A missing file is
// not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, dotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("Config", "Loaded environment from %s", path)
	return nil
}

// LoadConfig loads config.yaml from configPath (or the default user config
// directory when empty), applies environment overrides and validates the
// result. A missing config.yaml yields the defaults.
func LoadConfig(configPath string) (HubConfig, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return HubConfig{}, err
		}
		configPath = defaultPath
	}

	cfg := GetDefaultConfig()
	configFilePath := filepath.Join(configPath, configFileName)

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return HubConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		// A bridge block in the file replaces the default one as a whole.
		cfg.Bridge = BridgeConfig{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return HubConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("Config", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return HubConfig{}, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return HubConfig{}, err
	}
	return cfg, nil
}

// applyDefaults fills zero values a partial config file may leave behind.
func applyDefaults(cfg *HubConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Forwarding.Mode == "" {
		cfg.Forwarding.Mode = ForwardingSimulated
	}
	if cfg.Forwarding.Timeout == 0 {
		cfg.Forwarding.Timeout = DefaultForwardTimeout
	}
	if cfg.Bridge.Command == "" {
		cfg.Bridge.Command = DefaultBridgeCommand
		cfg.Bridge.Args = append([]string(nil), DefaultBridgeArgs...)
	}
}

func applyEnvOverrides(cfg *HubConfig) error {
	if v, ok := lookupEnv(EnvHost); ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := lookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookupEnv(EnvBackends); ok && strings.TrimSpace(v) != "" {
		backends, err := ParseBackendList(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBackends, err)
		}
		cfg.Backends = backends
	}
	return nil
}

// ParseBackendList parses "name=url,name=url" preserving order.
func ParseBackendList(s string) (Backends, error) {
	var backends Backends
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, endpoint, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q is not in name=url form", item)
		}
		backends = append(backends, BackendDefinition{
			Name: strings.TrimSpace(name),
			URL:  strings.TrimSpace(endpoint),
		})
	}
	return backends, nil
}
