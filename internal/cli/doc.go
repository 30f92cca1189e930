// Package cli holds the output and connection helpers shared by the hub's
// client commands.
//
// # Output Formats
//
//   - table: kubectl-style plain columns, easy to pipe into grep or awk
//   - pretty: rounded, colored tables with a total footer
//   - json: raw JSON; lifecycle events are written one object per line
//   - yaml: YAML converted from the JSON form, so keys match the wire format
//
// # Endpoint Resolution
//
// Commands find the hub through --endpoint, then MCPHUB_ENDPOINT, then the
// server section of config.yaml. Wildcard listen hosts resolve to loopback.
//
// WaitForHub polls the health route behind a spinner; `mcphub status --wait`
// uses it in scripts that start the hub and need it ready.
package cli
