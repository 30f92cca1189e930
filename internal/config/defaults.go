package config

import "time"

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 3000
	DefaultShutdownTimeout = 5 * time.Second
	DefaultForwardTimeout  = 30 * time.Second

	// DefaultBridgeCommand bridges a remote MCP endpoint onto a local process.
	DefaultBridgeCommand = "npx"
)

// DefaultBridgeArgs are rendered per backend; see BridgeConfig.
var DefaultBridgeArgs = []string{"-y", "mcp-remote", "{{ .URL }}"}

// GetDefaultConfig returns the configuration used when no file is present.
// It has no backends.
func GetDefaultConfig() HubConfig {
	return HubConfig{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Bridge: BridgeConfig{
			Command: DefaultBridgeCommand,
			Args:    append([]string(nil), DefaultBridgeArgs...),
		},
		Forwarding: ForwardingConfig{
			Mode:    ForwardingSimulated,
			Timeout: DefaultForwardTimeout,
		},
		LogLevel: "info",
	}
}
