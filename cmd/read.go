package cmd

import (
	"github.com/spf13/cobra"

	"mcphub/internal/cli"
	"mcphub/internal/client"
)

var readFlags cli.CommandFlags

var readCmd = &cobra.Command{
	Use:   "read <uri>",
	Short: "Read a backend resource",
	Long: `Reads a resource through the hub. URIs take the form
repo://<backend>/<path>; see 'mcphub list resources' for the roots.

Examples:
  mcphub read repo://alpha/
  mcphub read repo://alpha/README.md -o json`,
	Aliases: []string{"get"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, err := readFlags.Printer(cmd)
		if err != nil {
			return err
		}
		c := client.New(readFlags.ResolveEndpoint(), 0)
		result, err := c.ReadResource(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		return printer.PrintResourceResult(result)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	cli.RegisterCommonFlags(readCmd, &readFlags)
}
