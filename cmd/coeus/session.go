package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/spf13/cobra"
)

// sessionExport is the JSON document written by `session export`. Records
// are the remembered exchanges; Transcript holds every committed message,
// tool calls and results included.
type sessionExport struct {
	ExportID   string              `json:"export_id"`
	SessionID  string              `json:"session_id"`
	ExportedAt time.Time           `json:"exported_at"`
	Records    []core.MemoryRecord `json:"records"`
	Transcript []core.Message      `json:"transcript"`
}

var exportOutput string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect stored conversation sessions",
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a session's exchanges as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStores(cmd, func(ctx context.Context, st *stores) error {
			records, err := st.sessions.Reconstruct(ctx, args[0])
			if err != nil {
				return err
			}
			transcript, err := st.messages.GetMessages(ctx, args[0], 0)
			if err != nil {
				return err
			}
			if len(records) == 0 && len(transcript) == 0 {
				return fmt.Errorf("session %q has no records", args[0])
			}

			var out io.Writer = cmd.OutOrStdout()
			if exportOutput != "" && exportOutput != "-" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return fmt.Errorf("create %s: %w", exportOutput, err)
				}
				defer f.Close()
				out = f
			}
			return writeExport(out, sessionExport{
				SessionID:  args[0],
				Records:    records,
				Transcript: transcript,
			}, time.Now())
		})
	},
}

// writeExport stamps doc with a fresh export id and time before encoding it.
func writeExport(w io.Writer, doc sessionExport, now time.Time) error {
	doc.ExportID = uuid.NewString()
	doc.ExportedAt = now.UTC()
	if doc.Records == nil {
		doc.Records = []core.MemoryRecord{}
	}
	if doc.Transcript == nil {
		doc.Transcript = []core.Message{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func init() {
	sessionExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	sessionCmd.AddCommand(sessionExportCmd)
	rootCmd.AddCommand(sessionCmd)
}
