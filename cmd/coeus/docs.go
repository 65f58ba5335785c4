package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the document library",
}

// withStores runs fn against opened storage with a configured logger.
func withStores(cmd *cobra.Command, fn func(ctx context.Context, st *stores) error) error {
	ctx, flushLog := setupLogger(cmd.Context())
	defer flushLog()

	st, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

var docsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Ingest new files from the documents folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			report, err := st.library.LoadDirectory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "loaded %d files (%d chunks), skipped %d\n", len(report.Loaded), report.Chunks, len(report.Skipped))

			names := make([]string, 0, len(report.Failed))
			for name := range report.Failed {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "failed %s: %v\n", name, report.Failed[name])
			}
			return nil
		})
	},
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			docs, err := st.library.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintf(out, "no documents loaded, put files in %s\n", st.library.Dir())
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%-40s %4d chunks  %s\n", d.Name, d.Chunks, humanize.RelTime(d.LoadedAt, time.Now(), "ago", "from now"))
			}
			return nil
		})
	},
}

var docsAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Copy a file into the library and ingest it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			n, err := st.library.Add(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%d chunks)\n", args[0], n)
			return nil
		})
	},
}

var docsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a document and its chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			n, err := st.library.Remove(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%d chunks)\n", name, n)
			return nil
		})
	},
}

var docsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every document chunk, keeping the files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			n, err := st.library.Clear(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d chunks\n", n)
			return nil
		})
	},
}

func init() {
	docsCmd.AddCommand(docsLoadCmd, docsListCmd, docsAddCmd, docsRemoveCmd, docsClearCmd)
	rootCmd.AddCommand(docsCmd)
}
