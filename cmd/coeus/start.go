package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/coeus/pkg/log"
	"github.com/sandevgo/coeus/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agent",
	Long:  `Starts the configured transports (CLI, Telegram) and background workers (MCP bridge, document watcher, TTS).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting coeus")

		services, err := NewServices(ctx, stop)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("coeus has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
