package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcphub/internal/app"
)

// serveConfigPath specifies a custom configuration directory path holding
// config.yaml and an optional .env file.
var serveConfigPath string

// serveCmd starts the hub in the foreground.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hub and its repository backends",
	Long: `Starts the hub: one bridge process is spawned per configured backend and
the aggregated tools and resources are served on the configured address until
SIGINT or SIGTERM.

Routes:
  GET  /health                  liveness and backend status
  GET  /mcp/tools               aggregated tool descriptors
  POST /mcp/tools/{tool}        call a tool
  GET  /mcp/resources           one resource per backend
  GET  /mcp/resources/{path}    read a resource
  POST /mcp                     JSON-RPC over HTTP
  GET  /ws                      JSON-RPC over WebSocket
  GET  /events                  backend lifecycle events (SSE)

Configuration:
  mcphub reads config.yaml from ~/.config/mcphub or --config-path. A .env
  file next to it is loaded first. MCPHUB_HOST, MCPHUB_PORT, MCPHUB_BACKENDS
  (name=url,name=url) and MCPHUB_LOG_LEVEL override the file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(rootDebug, serveConfigPath, GetVersion())

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(commandContext(cmd))
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
}
