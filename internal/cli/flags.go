package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcphub/internal/config"
)

// EnvEndpoint overrides the hub address used by client commands.
const EnvEndpoint = "MCPHUB_ENDPOINT"

// CommandFlags holds the flag values shared by commands that talk to a
// running hub.
type CommandFlags struct {
	// OutputFormat is one of ValidOutputFormats
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// ConfigPath is used to derive the endpoint from config.yaml
	ConfigPath string
	// Endpoint is the hub base URL, e.g. http://127.0.0.1:3000
	Endpoint string
}

// RegisterCommonFlags registers the output and connection flags:
//   - --output/-o: table, pretty, json or yaml
//   - --no-headers
//   - --quiet/-q
//   - --config-path
//   - --endpoint (env: MCPHUB_ENDPOINT)
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, pretty, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	RegisterConnectionFlags(cmd, flags)
}

// RegisterConnectionFlags registers only --config-path and --endpoint.
func RegisterConnectionFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", "", "Configuration directory (default: user config directory)")
	cmd.PersistentFlags().StringVar(&flags.Endpoint, "endpoint", "", "Hub base URL (env: MCPHUB_ENDPOINT)")
}

// ResolveEndpoint picks the hub address: the --endpoint flag, then
// MCPHUB_ENDPOINT, then the server section of config.yaml. When the config
// cannot be loaded the default port on loopback is used.
func (f *CommandFlags) ResolveEndpoint() string {
	if f.Endpoint != "" {
		return strings.TrimRight(f.Endpoint, "/")
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		return strings.TrimRight(v, "/")
	}

	cfg, err := config.LoadConfig(f.ConfigPath)
	if err != nil {
		return config.ServerConfig{Port: config.DefaultPort}.ClientURL()
	}
	return cfg.Server.ClientURL()
}

// Printer returns a Printer for the selected output format.
func (f *CommandFlags) Printer(cmd *cobra.Command) (*Printer, error) {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return nil, err
	}
	return NewPrinter(cmd.OutOrStdout(), OutputFormat(f.OutputFormat), f.NoHeaders), nil
}
