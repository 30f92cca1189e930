package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/cli"
	"mcphub/internal/router"
	"mcphub/pkg/logging"
)

const (
	subsystem = "Console"

	prompt      = "mcphub> "
	historyName = ".mcphub_console_history"

	// commandTimeout bounds a single command, including slow forwarded calls.
	commandTimeout = 2 * time.Minute
)

// Session is the JSON-RPC conversation the console drives.
// *client.Channel implements it.
type Session interface {
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	SendRaw(ctx context.Context, message []byte) ([]byte, error)
}

// Options configures a Console.
type Options struct {
	Session Session
	Printer *cli.Printer
	// Out receives command output that does not go through Printer.
	Out io.Writer
	// Version is announced as the client version by init.
	Version string
	// HistoryFile defaults to a file in os.TempDir.
	HistoryFile string
}

// Console is an interactive shell over a channel to the hub.
type Console struct {
	session  Session
	printer  *cli.Printer
	out      io.Writer
	version  string
	history  string
	registry *Registry

	mu        sync.RWMutex
	tools     []string
	resources []string
}

// New creates a console with the built-in command set.
func New(opts Options) (*Console, error) {
	if opts.Session == nil {
		return nil, errors.New("console requires a session")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Printer == nil {
		opts.Printer = cli.NewPrinter(opts.Out, cli.OutputFormatTable, false)
	}
	if opts.HistoryFile == "" {
		opts.HistoryFile = filepath.Join(os.TempDir(), historyName)
	}

	c := &Console{
		session:  opts.Session,
		printer:  opts.Printer,
		out:      opts.Out,
		version:  opts.Version,
		history:  opts.HistoryFile,
		registry: NewRegistry(),
	}
	c.registerCommands()
	return c, nil
}

func (c *Console) registerCommands() {
	c.registry.Register("help", &helpCommand{c: c})
	c.registry.Register("init", &initCommand{c: c})
	c.registry.Register("tools", &toolsCommand{c: c})
	c.registry.Register("resources", &resourcesCommand{c: c})
	c.registry.Register("call", &callCommand{c: c})
	c.registry.Register("read", &readCommand{c: c})
	c.registry.Register("raw", &rawCommand{c: c})
	c.registry.Register("exit", exitCommand{})
}

// Execute runs one input line. It returns errExit for the exit command.
func (c *Console) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	name, args, _ := strings.Cut(line, " ")
	cmd, ok := c.registry.Get(strings.ToLower(name))
	if !ok {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", name)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return cmd.Execute(ctx, args)
}

// Run reads commands until exit, EOF or ctx is cancelled. Tool and resource
// names are prefetched for tab completion; a hub that does not answer yet
// only loses completion.
func (c *Console) Run(ctx context.Context) error {
	if _, err := c.refreshTools(ctx); err != nil {
		logging.Warn(subsystem, "Could not prefetch tools: %v", err)
	}
	if _, err := c.refreshResources(ctx); err != nil {
		logging.Warn(subsystem, "Could not prefetch resources: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              prompt,
		HistoryFile:         c.history,
		AutoComplete:        c.completer(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	c.println("Type 'help' for available commands. Use TAB for completion.")
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			c.println("%s", cli.FormatError(err))
		}
		// Completion follows the last listing.
		rl.Config.AutoComplete = c.completer()
	}
}

func (c *Console) refreshTools(ctx context.Context) ([]mcp.Tool, error) {
	raw, err := c.session.Call(ctx, router.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	var result router.ToolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tools: %w", err)
	}

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	c.mu.Lock()
	c.tools = names
	c.mu.Unlock()
	return result.Tools, nil
}

func (c *Console) refreshResources(ctx context.Context) ([]mcp.Resource, error) {
	raw, err := c.session.Call(ctx, router.MethodResourcesList, nil)
	if err != nil {
		return nil, err
	}
	var result router.ResourcesListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}

	uris := make([]string, 0, len(result.Resources))
	for _, res := range result.Resources {
		uris = append(uris, res.URI)
	}
	c.mu.Lock()
	c.resources = uris
	c.mu.Unlock()
	return result.Resources, nil
}

func (c *Console) completer() *readline.PrefixCompleter {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]readline.PrefixCompleterInterface, len(c.tools))
	for i, name := range c.tools {
		tools[i] = readline.PcItem(name)
	}
	resources := make([]readline.PrefixCompleterInterface, len(c.resources))
	for i, uri := range c.resources {
		resources[i] = readline.PcItem(uri)
	}

	helpTopics := make([]readline.PrefixCompleterInterface, 0, len(c.registry.commands))
	for _, name := range c.registry.Names() {
		helpTopics = append(helpTopics, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help", helpTopics...),
		readline.PcItem("init"),
		readline.PcItem("tools"),
		readline.PcItem("resources"),
		readline.PcItem("call", tools...),
		readline.PcItem("read", resources...),
		readline.PcItem("raw"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

func (c *Console) println(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func filterInput(r rune) (rune, bool) {
	// Ctrl+Z would suspend the process with the terminal in raw mode.
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}
