package installer

import (
	"strings"

	"github.com/sandevgo/coeus/internal/config"
	"github.com/sandevgo/coeus/pkg/env"
)

const (
	ChannelCLI      = "CLI"
	ChannelTelegram = "Telegram"
	ChannelBoth     = "CLI + Telegram"
)

// InstallState collects wizard answers. Tags match the runtime config so the
// result can be written straight to .env. Flags are strings so an explicit
// "false" survives marshalling.
type InstallState struct {
	Provider       string `env:"COEUS_LLM_PROVIDER"`
	BaseURL        string `env:"COEUS_LLM_BASE_URL"`
	APIKey         string `env:"COEUS_LLM_API_KEY"`
	Model          string `env:"COEUS_LLM_MODEL"`
	EmbeddingModel string `env:"COEUS_EMBEDDING_MODEL"`

	EnableCLI      string `env:"COEUS_ENABLE_CLI"`
	EnableTelegram string `env:"COEUS_ENABLE_TELEGRAM"`
	TelegramToken  string `env:"COEUS_TELEGRAM_TOKEN"`
	TelegramOwner  string `env:"COEUS_TELEGRAM_OWNER_ID"`

	Debug string `env:"COEUS_DEBUG"`

	Channel string `env:"-"`
}

func NewInstallState() *InstallState {
	return &InstallState{}
}

func (s *InstallState) IsOllama() bool { return s.Provider == "ollama" }

func (s *InstallState) WantsTelegram() bool {
	return s.Channel == ChannelTelegram || s.Channel == ChannelBoth
}

// Finalize fills derived values and defaults.
func (s *InstallState) Finalize() {
	s.EnableTelegram = boolString(s.WantsTelegram())
	s.EnableCLI = boolString(s.Channel != ChannelTelegram)
	if !s.WantsTelegram() {
		s.TelegramToken = ""
		s.TelegramOwner = ""
	}
	if s.Debug == "" {
		s.Debug = "0"
	}
	s.Provider = strings.ToLower(s.Provider)
}

// Env renders the state as .env content.
func (s *InstallState) Env() (string, error) {
	return env.MarshalEnv(s)
}

// llmConfig adapts the answers so far to the provider factory.
func (s *InstallState) llmConfig() *config.LLMConfig {
	return &config.LLMConfig{
		Provider: strings.ToLower(s.Provider),
		BaseURL:  s.BaseURL,
		APIKey:   s.APIKey,
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
