package command

import (
	"context"
	"fmt"
)

type ClearCommand struct {
	memory    MemoryStore
	formatter *ResponseFormatter
}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Delete all long-term memories" }

func (c *ClearCommand) Execute(ctx context.Context, args []string) (string, error) {
	n, err := c.memory.Clear(ctx)
	if err != nil {
		return "", fmt.Errorf("clear memories: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Cleared %d long-term memories.", n)), nil
}

type ResetCommand struct {
	agent     Conversation
	formatter *ResponseFormatter
}

func (c *ResetCommand) Name() string        { return "reset" }
func (c *ResetCommand) Description() string { return "Clear conversation history and start a new session" }

func (c *ResetCommand) Execute(ctx context.Context, args []string) (string, error) {
	id := c.agent.Reset()
	return c.formatter.Combine(
		c.formatter.Success("Session history cleared."),
		c.formatter.Label("Session", id),
	), nil
}

type CountCommand struct {
	agent     Conversation
	memory    MemoryStore
	library   Library
	formatter *ResponseFormatter
}

func (c *CountCommand) Name() string        { return "count" }
func (c *CountCommand) Description() string { return "Show memory, history and document counts" }

func (c *CountCommand) Execute(ctx context.Context, args []string) (string, error) {
	memories, err := c.memory.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count memories: %w", err)
	}

	out := []string{
		c.formatter.Info("Counts"),
		c.formatter.Label("Long-term memories", memories),
		c.formatter.Label("Session messages", c.agent.HistoryLen()),
	}
	if c.library != nil {
		chunks, err := c.library.Count(ctx)
		if err != nil {
			return "", fmt.Errorf("count chunks: %w", err)
		}
		out = append(out, c.formatter.Label("RAG chunks", chunks))
	}
	return c.formatter.Combine(out...), nil
}

type SessionCommand struct {
	agent     Conversation
	formatter *ResponseFormatter
}

func (c *SessionCommand) Name() string        { return "session" }
func (c *SessionCommand) Description() string { return "Show the current session id" }

func (c *SessionCommand) Execute(ctx context.Context, args []string) (string, error) {
	return c.formatter.Combine(
		c.formatter.Label("Session", c.agent.SessionID()),
		c.formatter.Label("Messages", c.agent.HistoryLen()),
	), nil
}

type ToolsCommand struct {
	agent     Conversation
	formatter *ResponseFormatter
}

func (c *ToolsCommand) Name() string        { return "tools" }
func (c *ToolsCommand) Description() string { return "List registered tools" }

func (c *ToolsCommand) Execute(ctx context.Context, args []string) (string, error) {
	names := c.agent.Tools()
	if len(names) == 0 {
		return "No tools registered.", nil
	}
	return c.formatter.Combine(
		c.formatter.Info(fmt.Sprintf("Tools (%d)", len(names))),
		c.formatter.List(names),
	), nil
}
