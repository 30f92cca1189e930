// Package config loads and validates the mcphub configuration.
//
// Configuration is read once at startup from a single directory containing
// config.yaml (by default ~/.config/mcphub). A .env file in the working
// directory is loaded first, then MCPHUB_* environment variables override
// file values:
//
//	server:
//	  host: 0.0.0.0
//	  port: 3000
//	bridge:
//	  command: npx
//	  args: ["-y", "mcp-remote", "{{ .URL }}"]
//	forwarding:
//	  mode: simulated
//	backends:
//	  alpha: http://alpha.internal:8080/mcp
//	  beta: http://beta.internal:8080/mcp
//
// Backends are an ordered mapping: the order in the file is the order in
// which backends are started and listed.
package config
