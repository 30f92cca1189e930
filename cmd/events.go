package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mcphub/internal/cli"
	"mcphub/internal/client"
	"mcphub/internal/events"
)

var (
	eventsFlags   cli.CommandFlags
	eventsBackend string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow backend lifecycle events",
	Long: `Follows the hub's event stream and prints every backend lifecycle event
(starting, running, exited, spawn-failed) until interrupted.

Examples:
  mcphub events
  mcphub events --backend alpha
  mcphub events -o json | jq .`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	printer, err := eventsFlags.Printer(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(eventsFlags.ResolveEndpoint(), 0)
	return c.WatchEvents(ctx, func(ev events.Event) error {
		if eventsBackend != "" && ev.Backend != eventsBackend {
			return nil
		}
		return printer.PrintEvent(ev)
	})
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	cli.RegisterCommonFlags(eventsCmd, &eventsFlags)
	eventsCmd.Flags().StringVar(&eventsBackend, "backend", "", "Only show events of this backend")
}
