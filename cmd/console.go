package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mcphub/internal/cli"
	"mcphub/internal/client"
	"mcphub/internal/console"
)

var consoleFlags cli.CommandFlags

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive JSON-RPC console to the hub",
	Long: `Opens a WebSocket channel to the hub and starts an interactive shell.
Every command is sent as a JSON-RPC request on the same channel, so replies
arrive in order. Type 'help' inside the console for the command list.

Examples:
  mcphub console
  mcphub console --endpoint http://10.0.0.5:3000`,
	Aliases: []string{"repl"},
	Args:    cobra.NoArgs,
	RunE:    runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	printer, err := consoleFlags.Printer(cmd)
	if err != nil {
		return err
	}
	// Ctrl+C is handled by readline as a line interrupt.
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGTERM)
	defer stop()

	ch, err := client.Dial(ctx, consoleFlags.ResolveEndpoint())
	if err != nil {
		return err
	}
	defer ch.Close()

	c, err := console.New(console.Options{
		Session: ch,
		Printer: printer,
		Out:     cmd.OutOrStdout(),
		Version: GetVersion(),
	})
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	cli.RegisterCommonFlags(consoleCmd, &consoleFlags)
}
