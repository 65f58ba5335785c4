package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/coeus/pkg/log"
)

// VoiceConfig drives the optional speech output. Command receives each phrase on stdin.
type VoiceConfig struct {
	Enabled bool     `env:"COEUS_TTS_ENABLED" envDefault:"false"`
	Command string   `env:"COEUS_TTS_COMMAND" envDefault:"espeak-ng"`
	Args    []string `env:"COEUS_TTS_ARGS" envSeparator:" "`
}

func NewVoiceConfig(ctx context.Context) *VoiceConfig {
	c := &VoiceConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Voice config")
	}
	return c
}
