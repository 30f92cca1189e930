package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HubConfig is the top-level configuration structure for mcphub.
// It is read once at startup and treated as immutable afterwards.
type HubConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Bridge     BridgeConfig     `yaml:"bridge"`
	Forwarding ForwardingConfig `yaml:"forwarding"`
	Backends   Backends         `yaml:"backends"`
	LogLevel   string           `yaml:"logLevel,omitempty"`
}

// ServerConfig defines where the unified endpoint listens.
type ServerConfig struct {
	Host            string        `yaml:"host,omitempty"`            // Host to bind to (default: 0.0.0.0)
	Port            int           `yaml:"port,omitempty"`            // Port for HTTP, WebSocket and SSE (default: 3000)
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"` // Grace period for in-flight HTTP requests
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientURL returns the base URL a local client should use to reach the
// server. Wildcard hosts are replaced by the loopback address.
func (s ServerConfig) ClientURL() string {
	host := s.Host
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(s.Port))
}

// BridgeConfig describes the subprocess spawned for every backend. Args are
// Go templates rendered with the backend's Name and URL.
type BridgeConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// ForwardingMode selects how tools/call and resources/read produce results.
type ForwardingMode string

const (
	// ForwardingSimulated answers calls locally with placeholder content.
	ForwardingSimulated ForwardingMode = "simulated"
	// ForwardingRemote forwards calls to the backend endpoint over MCP streamable HTTP.
	ForwardingRemote ForwardingMode = "remote"
)

// ForwardingConfig controls the router's call forwarding.
type ForwardingConfig struct {
	Mode    ForwardingMode `yaml:"mode,omitempty"`
	Timeout time.Duration  `yaml:"timeout,omitempty"`
}

// BackendDefinition maps one backend name to its endpoint URL.
type BackendDefinition struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Backends is the ordered set of configured backends. In YAML it is written
// as a mapping from name to URL; document order is preserved because it
// determines registration order and therefore listing order.
type Backends []BackendDefinition

// UnmarshalYAML accepts either a mapping (name: url) or a sequence of
// {name, url} objects.
func (b *Backends) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		defs := make(Backends, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: backend %q must map to a URL string", value.Line, key.Value)
			}
			defs = append(defs, BackendDefinition{Name: key.Value, URL: value.Value})
		}
		*b = defs
		return nil
	case yaml.SequenceNode:
		var defs []BackendDefinition
		if err := node.Decode(&defs); err != nil {
			return err
		}
		*b = defs
		return nil
	default:
		return fmt.Errorf("line %d: backends must be a mapping of name to url", node.Line)
	}
}

// MarshalYAML writes the backends back as an ordered mapping.
func (b Backends) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, def := range b {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: def.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: def.URL},
		)
	}
	return node, nil
}

// Names returns the backend names in configuration order.
func (b Backends) Names() []string {
	names := make([]string, 0, len(b))
	for _, def := range b {
		names = append(names, def.Name)
	}
	return names
}
