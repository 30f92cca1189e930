package cmd

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"mcphub/internal/cli"
	"mcphub/internal/client"
	"mcphub/internal/server"
)

var (
	statusFlags      cli.CommandFlags
	statusWait       bool
	statusTimeout    time.Duration
	statusMinRunning int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show hub health and backend processes",
	Long: `Shows the hub's health report: every backend with its lifecycle state,
process id and remote URL.

With --wait the command polls until the hub answers and at least
--min-running backends are running, which makes it usable right after
starting the hub in scripts:

  mcphub serve &
  mcphub status --wait --min-running 2 --timeout 30s`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := statusFlags.Printer(cmd)
	if err != nil {
		return err
	}
	c := client.New(statusFlags.ResolveEndpoint(), 0)
	ctx := commandContext(cmd)

	var health *server.HealthResponse
	if statusWait {
		var progress io.Writer
		if !statusFlags.Quiet {
			progress = cmd.ErrOrStderr()
		}
		health, err = cli.WaitForHub(ctx, c, statusMinRunning, statusTimeout, progress)
	} else {
		health, err = c.Health(ctx)
	}
	if err != nil {
		return err
	}
	return printer.PrintHealth(health)
}

func init() {
	rootCmd.AddCommand(statusCmd)

	cli.RegisterCommonFlags(statusCmd, &statusFlags)
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "Poll until the hub is ready")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 30*time.Second, "How long --wait polls")
	statusCmd.Flags().IntVar(&statusMinRunning, "min-running", 0, "Backends that must be running for --wait to succeed")
}
