package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/coeus/internal/config"
	"github.com/sandevgo/coeus/internal/providers/mcp"
	"github.com/sandevgo/coeus/internal/service/prompt"
)

// FinalizationStep computes derived values before anything is written.
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	state.Finalize()
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

// SaveEnvStep writes the collected configuration to the runtime .env file.
// An existing file is never overwritten.
type SaveEnvStep struct {
	err error
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.err != nil {
		return s, nil
	}
	if err := SaveEnv(config.GetRuntimePath(), state); err != nil {
		s.err = err
		return s, nil
	}
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	return "Saving configuration...\n"
}

// SaveEnv writes state as <dir>/.env.
func SaveEnv(dir string, state *InstallState) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		return fmt.Errorf(".env file already exists at %s", envPath)
	}

	content, err := state.Env()
	if err != nil {
		return err
	}
	return os.WriteFile(envPath, []byte(content), 0600)
}

// InitializeFilesStep lays out the runtime directory.
type InitializeFilesStep struct {
	err error
}

func NewInitializeFilesStep() Step {
	return &InitializeFilesStep{}
}

func (s *InitializeFilesStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *InitializeFilesStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.err != nil {
		return s, nil
	}
	if err := InitRuntime(context.Background(), config.AppConfig{RuntimePath: config.GetRuntimePath()}); err != nil {
		s.err = err
		return s, nil
	}
	return nil, nil
}

func (s *InitializeFilesStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	return "Initializing runtime files...\n"
}

// InitRuntime creates the documents and workspace folders, a persona file
// and an empty MCP config. Existing files are left alone.
func InitRuntime(ctx context.Context, cfg config.AppConfig) error {
	for _, dir := range []string{cfg.GetRuntimePath(), cfg.GetDocumentsPath(), cfg.GetWorkspacePath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	persona := cfg.GetPersonaPath()
	if _, err := os.Stat(persona); os.IsNotExist(err) {
		if err := os.WriteFile(persona, []byte(prompt.DefaultPersona+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", persona, err)
		}
	}

	// Load writes the default config when the file is missing.
	if _, err := mcp.NewFileStorage(cfg.GetMCPConfigPath()).Load(ctx); err != nil {
		return fmt.Errorf("failed to initialize MCP config: %w", err)
	}
	return nil
}
