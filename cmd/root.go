package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mcphub/internal/client"
	"mcphub/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeUnreachable indicates no hub answered at the resolved endpoint.
	ExitCodeUnreachable = 2
)

// rootDebug enables debug logging for every command.
var rootDebug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcphub",
	Short: "Aggregate repository MCP backends behind one endpoint",
	Long: `mcphub spawns one bridge process per configured repository backend and
exposes their search and list tools plus one resource per backend through a
single MCP endpoint (HTTP, JSON-RPC over HTTP and a WebSocket channel).

Start the hub with 'mcphub serve', then inspect it with 'mcphub status',
'mcphub list tools' or the interactive 'mcphub console'.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Client commands keep stdout for results; serve re-initializes
		// logging from its configuration.
		level := logging.LevelWarn
		if rootDebug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcphub version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var unreachable *client.UnreachableError
	if errors.As(err, &unreachable) {
		return ExitCodeUnreachable
	}
	return ExitCodeError
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute (tests call RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(newVersionCmd())
}
