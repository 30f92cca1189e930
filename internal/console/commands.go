package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/router"
)

// errExit is returned by the exit command to end the session.
var errExit = errors.New("exit")

// Command is one console command. args is the rest of the input line after
// the command word, untrimmed of inner spacing so JSON arguments survive.
type Command interface {
	Execute(ctx context.Context, args string) error
	Usage() string
	Description() string
	Aliases() []string
}

// Registry maps command names and aliases to commands.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command under name and its aliases.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get looks a command up by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if primary, ok := r.aliases[name]; ok {
		cmd, ok := r.commands[primary]
		return cmd, ok
	}
	return nil, false
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type helpCommand struct {
	c *Console
}

func (h *helpCommand) Execute(_ context.Context, args string) error {
	if name := strings.TrimSpace(args); name != "" {
		cmd, ok := h.c.registry.Get(strings.ToLower(name))
		if !ok {
			return fmt.Errorf("unknown command: %s", name)
		}
		h.c.println("Usage: %s", cmd.Usage())
		h.c.println("  %s", cmd.Description())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			h.c.println("  Aliases: %s", strings.Join(aliases, ", "))
		}
		return nil
	}

	h.c.println("Available commands:")
	for _, name := range h.c.registry.Names() {
		cmd, _ := h.c.registry.Get(name)
		h.c.println("  %-28s %s", cmd.Usage(), cmd.Description())
	}
	h.c.println("")
	h.c.println("Examples:")
	h.c.println(`  call alpha_search {"query": "foo", "limit": 5}`)
	h.c.println("  read repo://alpha/README.md")
	h.c.println(`  raw {"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	return nil
}

func (h *helpCommand) Usage() string       { return "help [command]" }
func (h *helpCommand) Description() string { return "Show available commands" }
func (h *helpCommand) Aliases() []string   { return []string{"?"} }

type exitCommand struct{}

func (exitCommand) Execute(context.Context, string) error { return errExit }
func (exitCommand) Usage() string                         { return "exit" }
func (exitCommand) Description() string                   { return "Close the channel and leave the console" }
func (exitCommand) Aliases() []string                     { return []string{"quit", "q"} }

type initCommand struct {
	c *Console
}

func (i *initCommand) Execute(ctx context.Context, _ string) error {
	raw, err := i.c.session.Call(ctx, router.MethodInitialize, map[string]interface{}{
		"protocolVersion": router.ProtocolVersion,
		"clientInfo":      mcp.Implementation{Name: "mcphub-console", Version: i.c.version},
		"capabilities":    map[string]interface{}{},
	})
	if err != nil {
		return err
	}
	var result router.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode initialize result: %w", err)
	}
	i.c.println("Connected to %s %s (protocol %s)", result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
	return nil
}

func (i *initCommand) Usage() string       { return "init" }
func (i *initCommand) Description() string { return "Send initialize and show the server info" }
func (i *initCommand) Aliases() []string   { return nil }

type toolsCommand struct {
	c *Console
}

func (t *toolsCommand) Execute(ctx context.Context, _ string) error {
	tools, err := t.c.refreshTools(ctx)
	if err != nil {
		return err
	}
	return t.c.printer.PrintTools(tools)
}

func (t *toolsCommand) Usage() string       { return "tools" }
func (t *toolsCommand) Description() string { return "List the aggregated tools" }
func (t *toolsCommand) Aliases() []string   { return []string{"ls"} }

type resourcesCommand struct {
	c *Console
}

func (r *resourcesCommand) Execute(ctx context.Context, _ string) error {
	resources, err := r.c.refreshResources(ctx)
	if err != nil {
		return err
	}
	return r.c.printer.PrintResources(resources)
}

func (r *resourcesCommand) Usage() string       { return "resources" }
func (r *resourcesCommand) Description() string { return "List the per-backend resources" }
func (r *resourcesCommand) Aliases() []string   { return []string{"res"} }

type callCommand struct {
	c *Console
}

func (cc *callCommand) Execute(ctx context.Context, args string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if name == "" {
		return fmt.Errorf("usage: %s", cc.Usage())
	}

	params := router.CallToolParams{Name: name}
	if rest = strings.TrimSpace(rest); rest != "" {
		if err := json.Unmarshal([]byte(rest), &params.Arguments); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	raw, err := cc.c.session.Call(ctx, router.MethodToolsCall, params)
	if err != nil {
		return err
	}
	result, err := mcp.ParseCallToolResult(&raw)
	if err != nil {
		return fmt.Errorf("failed to decode tool result: %w", err)
	}
	return cc.c.printer.PrintToolResult(result)
}

func (cc *callCommand) Usage() string       { return "call <tool> [json]" }
func (cc *callCommand) Description() string { return "Call a tool with JSON arguments" }
func (cc *callCommand) Aliases() []string   { return nil }

type readCommand struct {
	c *Console
}

func (rc *readCommand) Execute(ctx context.Context, args string) error {
	uri := strings.TrimSpace(args)
	if uri == "" {
		return fmt.Errorf("usage: %s", rc.Usage())
	}

	raw, err := rc.c.session.Call(ctx, router.MethodResourcesRead, router.ReadResourceParams{URI: uri})
	if err != nil {
		return err
	}
	result, err := mcp.ParseReadResourceResult(&raw)
	if err != nil {
		return fmt.Errorf("failed to decode resource: %w", err)
	}
	return rc.c.printer.PrintResourceResult(result)
}

func (rc *readCommand) Usage() string       { return "read <uri>" }
func (rc *readCommand) Description() string { return "Read a resource" }
func (rc *readCommand) Aliases() []string   { return []string{"get"} }

type rawCommand struct {
	c *Console
}

func (rc *rawCommand) Execute(ctx context.Context, args string) error {
	msg := strings.TrimSpace(args)
	if msg == "" {
		return fmt.Errorf("usage: %s", rc.Usage())
	}
	reply, err := rc.c.session.SendRaw(ctx, []byte(msg))
	if err != nil {
		return err
	}

	var pretty interface{}
	if err := json.Unmarshal(reply, &pretty); err != nil {
		rc.c.println("%s", reply)
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	rc.c.println("%s", out)
	return nil
}

func (rc *rawCommand) Usage() string       { return "raw <json>" }
func (rc *rawCommand) Description() string { return "Send a hand-written JSON-RPC message" }
func (rc *rawCommand) Aliases() []string   { return nil }
