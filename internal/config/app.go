package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/coeus/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"-"`

	// Transport Flags
	EnableCLI      bool `env:"COEUS_ENABLE_CLI" envDefault:"true"`
	EnableTelegram bool `env:"COEUS_ENABLE_TELEGRAM" envDefault:"false"`

	// Turn loop
	MaxIterations   int           `env:"COEUS_MAX_ITERATIONS" envDefault:"10"`
	MaxHistoryTurns int           `env:"COEUS_MAX_HISTORY_TURNS" envDefault:"10"`
	SessionTimeout  time.Duration `env:"COEUS_SESSION_TIMEOUT" envDefault:"30m"`

	// Tools
	ToolConcurrency int           `env:"COEUS_TOOL_CONCURRENCY" envDefault:"10"`
	ToolTimeout     time.Duration `env:"COEUS_TOOL_TIMEOUT" envDefault:"2m"`
	EnableShell     bool          `env:"COEUS_ENABLE_SHELL" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = GetRuntimePath()
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetPersonaPath() string {
	return filepath.Join(c.RuntimePath, "PERSONA.md")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "coeus.db")
}

func (c AppConfig) GetMCPConfigPath() string {
	return filepath.Join(c.RuntimePath, "mcp_config.json")
}

func (c AppConfig) GetDocumentsPath() string {
	return filepath.Join(c.RuntimePath, "documents")
}

// GetWorkspacePath is the sandbox root for the file tools.
func (c AppConfig) GetWorkspacePath() string {
	return filepath.Join(c.RuntimePath, "workspace")
}

func (c AppConfig) GetHistoryPath() string {
	return filepath.Join(c.RuntimePath, ".history")
}
