package main

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/coeus/internal/config"
	"github.com/sandevgo/coeus/internal/service/installer"
	"github.com/sandevgo/coeus/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Configure Coeus and prepare the runtime directory",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting installation")

		if _, err := installer.RunWizard(); err != nil {
			return err
		}

		runtimePath := config.GetRuntimePath()
		envPath := filepath.Join(runtimePath, ".env")
		if err := godotenv.Load(envPath); err != nil {
			logger.Warn().Err(err).Str("path", envPath).Msg("failed to load .env file")
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("installation complete, run 'coeus start'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
