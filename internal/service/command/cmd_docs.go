package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type LoadCommand struct {
	library   Library
	formatter *ResponseFormatter
}

func (c *LoadCommand) Name() string        { return "load" }
func (c *LoadCommand) Description() string { return "Load new documents from the documents folder" }

func (c *LoadCommand) Execute(ctx context.Context, args []string) (string, error) {
	report, err := c.library.LoadDirectory(ctx)
	if err != nil {
		return "", err
	}

	out := []string{
		c.formatter.Label("Loaded", strings.Join(orNone(report.Loaded), ", ")),
		c.formatter.Label("Skipped (already loaded)", strings.Join(orNone(report.Skipped), ", ")),
		c.formatter.Label("New chunks", report.Chunks),
	}
	if len(report.Failed) > 0 {
		failed := make([]string, 0, len(report.Failed))
		for name, err := range report.Failed {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
		}
		sort.Strings(failed)
		out = append(out, c.formatter.Info("Failed"), c.formatter.List(failed))
	}
	return c.formatter.Combine(out...), nil
}

type DocsCommand struct {
	library   Library
	formatter *ResponseFormatter
}

func (c *DocsCommand) Name() string        { return "docs" }
func (c *DocsCommand) Description() string { return "List loaded documents" }

func (c *DocsCommand) Execute(ctx context.Context, args []string) (string, error) {
	docs, err := c.library.List(ctx)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return c.formatter.Combine(
			"No documents loaded.\n",
			c.formatter.Tip(fmt.Sprintf("put files in %s and use /load", c.library.Dir())),
		), nil
	}

	items := make([]string, 0, len(docs))
	for _, d := range docs {
		items = append(items, fmt.Sprintf("%s (%d chunks, loaded %s)", d.Name, d.Chunks, humanize.RelTime(d.LoadedAt, time.Now(), "ago", "from now")))
	}
	return c.formatter.Combine(
		c.formatter.Info(fmt.Sprintf("Documents (%d)", len(docs))),
		c.formatter.List(items),
	), nil
}

type ClearDocsCommand struct {
	library   Library
	formatter *ResponseFormatter
}

func (c *ClearDocsCommand) Name() string        { return "cleardocs" }
func (c *ClearDocsCommand) Description() string { return "Delete all document chunks" }

func (c *ClearDocsCommand) Execute(ctx context.Context, args []string) (string, error) {
	n, err := c.library.Clear(ctx)
	if err != nil {
		return "", err
	}
	return c.formatter.Success(fmt.Sprintf("Cleared %d RAG chunks.", n)), nil
}

type AddCommand struct {
	library   Library
	formatter *ResponseFormatter
}

func (c *AddCommand) Name() string        { return "add" }
func (c *AddCommand) Description() string { return "Add a document by path" }

func (c *AddCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/add <path>"), nil
	}
	path := strings.Join(args, " ")
	n, err := c.library.Add(ctx, path)
	if err != nil {
		return "", err
	}
	return c.formatter.Success(fmt.Sprintf("Added %s (%d chunks)", path, n)), nil
}

type RemoveCommand struct {
	library   Library
	formatter *ResponseFormatter
}

func (c *RemoveCommand) Name() string        { return "remove" }
func (c *RemoveCommand) Description() string { return "Remove a document by name" }

func (c *RemoveCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/remove <name>"), nil
	}
	name := strings.Join(args, " ")
	n, err := c.library.Remove(ctx, name)
	if err != nil {
		return "", err
	}
	return c.formatter.Success(fmt.Sprintf("Removed %s (%d chunks)", name, n)), nil
}

func orNone(items []string) []string {
	if len(items) == 0 {
		return []string{"none"}
	}
	return items
}
