package cmd

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"mcphub/internal/aggregator"
	"mcphub/internal/cli"
	"mcphub/internal/client"
)

var (
	listFlags   cli.CommandFlags
	listBackend string
)

// listResourceTypes maps accepted arguments to the canonical listing.
var listResourceTypes = map[string]string{
	"tool":      "tools",
	"tools":     "tools",
	"resource":  "resources",
	"resources": "resources",
}

var listCmd = &cobra.Command{
	Use:   "list <tools|resources>",
	Short: "List aggregated tools or resources",
	Long: `Lists the tools or resources the hub currently exposes. Only running
backends contribute entries.

Examples:
  mcphub list tools
  mcphub list resources -o json
  mcphub list tools --backend alpha`,
	Aliases:   []string{"ls"},
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tools", "resources"},
	RunE:      runList,
}

func runList(cmd *cobra.Command, args []string) error {
	kind, ok := listResourceTypes[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown list type %q: expected tools or resources", args[0])
	}
	printer, err := listFlags.Printer(cmd)
	if err != nil {
		return err
	}
	c := client.New(listFlags.ResolveEndpoint(), 0)
	ctx := commandContext(cmd)

	if kind == "tools" {
		tools, err := c.ListTools(ctx)
		if err != nil {
			return err
		}
		return printer.PrintTools(filterTools(tools, listBackend))
	}

	resources, err := c.ListResources(ctx)
	if err != nil {
		return err
	}
	return printer.PrintResources(filterResources(resources, listBackend))
}

func filterTools(tools []mcp.Tool, backend string) []mcp.Tool {
	if backend == "" {
		return tools
	}
	var out []mcp.Tool
	for _, tool := range tools {
		if name, _, ok := aggregator.SplitQualifiedName(tool.Name); ok && name == backend {
			out = append(out, tool)
		}
	}
	return out
}

func filterResources(resources []mcp.Resource, backend string) []mcp.Resource {
	if backend == "" {
		return resources
	}
	var out []mcp.Resource
	for _, res := range resources {
		if name, _ := aggregator.ParseResourceURI(res.URI); name == backend {
			out = append(out, res)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)

	cli.RegisterCommonFlags(listCmd, &listFlags)
	listCmd.Flags().StringVar(&listBackend, "backend", "", "Only show entries of this backend")
}
