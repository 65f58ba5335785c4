package command

import (
	"context"
	"fmt"
	"strings"
)

type MCPCommand struct {
	servers   MCPServers
	formatter *ResponseFormatter
}

func (c *MCPCommand) Name() string        { return "mcp" }
func (c *MCPCommand) Description() string { return "Show MCP servers, or /mcp reload <name>" }

func (c *MCPCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 2 && args[0] == "reload" {
		n, err := c.servers.Reload(ctx, args[1])
		if err != nil {
			return "", err
		}
		return c.formatter.Success(fmt.Sprintf("Reloaded %s (%d tools)", args[1], n)), nil
	}

	status := c.servers.Status()
	if len(status) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("MCP Servers"),
			"No MCP servers configured.\n",
			c.formatter.Tip("add servers to mcp_config.json, changes are picked up automatically"),
		), nil
	}

	items := make([]string, 0, len(status))
	for _, s := range status {
		state := "disconnected"
		switch {
		case s.Disabled:
			state = "disabled"
		case s.Connected:
			state = "connected"
		}
		item := fmt.Sprintf("**%s** [%s, %s] %d tools", s.Name, s.Transport, state, len(s.Tools))
		if len(s.Tools) > 0 {
			item += ": " + strings.Join(s.Tools, ", ")
		}
		items = append(items, item)
	}
	return c.formatter.Combine(
		c.formatter.Info("MCP Servers"),
		c.formatter.List(items),
	), nil
}
