package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/coeus/internal/core"
)

var _ core.CmdRouter = (*Router)(nil)

// Router dispatches slash commands. Input without a leading slash is not handled.
type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	r := &Router{commands: make(map[string]core.Command)}
	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
	}
	r.commands["help"] = &HelpCommand{router: r, formatter: NewResponseFormatter()}
	return r
}

func (r *Router) Execute(ctx context.Context, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))

	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s (try /help)", name), true
	}

	result, err := cmd.Execute(ctx, parts[1:])
	if err != nil {
		return NewResponseFormatter().Error(err), true
	}
	return result, true
}

// ListCommands returns commands sorted by name.
func (r *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}

type HelpCommand struct {
	router    *Router
	formatter *ResponseFormatter
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands" }

func (c *HelpCommand) Execute(ctx context.Context, args []string) (string, error) {
	cmds := c.router.ListCommands()
	items := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		items = append(items, fmt.Sprintf("`/%s` %s", cmd.Name(), cmd.Description()))
	}
	return c.formatter.Combine(
		c.formatter.Info("Commands"),
		c.formatter.List(items),
	), nil
}
