package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"mcphub/internal/cli"
	"mcphub/internal/client"
)

var (
	callFlags cli.CommandFlags
	callArgs  []string
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [json-arguments]",
	Short: "Call an aggregated tool",
	Long: `Calls a tool through the hub's HTTP route. Arguments are given as one JSON
object, as repeated --arg key=value flags, or both; flags win on conflicts.
Values given with --arg are parsed as JSON when possible, so numbers and
booleans keep their type.

Examples:
  mcphub call alpha_search '{"query": "foo", "limit": 5}'
  mcphub call alpha_search --arg query=foo --arg limit=5
  mcphub call beta_list --arg path=/src -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	arguments, err := parseToolArguments(args[1:], callArgs)
	if err != nil {
		return err
	}
	printer, err := callFlags.Printer(cmd)
	if err != nil {
		return err
	}

	c := client.New(callFlags.ResolveEndpoint(), 0)
	result, err := c.CallTool(commandContext(cmd), args[0], arguments)
	if err != nil {
		return err
	}
	return printer.PrintToolResult(result)
}

// parseToolArguments merges an optional JSON object with key=value pairs.
func parseToolArguments(positional, pairs []string) (map[string]interface{}, error) {
	arguments := make(map[string]interface{})
	if len(positional) > 0 && strings.TrimSpace(positional[0]) != "" {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(positional[0]), &decoded); err != nil {
			return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
		// A literal null decodes to a nil map and means no arguments.
		maps.Copy(arguments, decoded)
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", pair)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		arguments[key] = value
	}
	return arguments, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	cli.RegisterCommonFlags(callCmd, &callFlags)
	callCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "Tool argument as key=value (repeatable)")
}
