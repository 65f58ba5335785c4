package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/coeus/pkg/log"
)

// TelegramConfig configures the owner-only bot. Messages from any other
// account are ignored.
type TelegramConfig struct {
	Token       string        `env:"COEUS_TELEGRAM_TOKEN,required,notEmpty"`
	OwnerID     int64         `env:"COEUS_TELEGRAM_OWNER_ID,required,notEmpty"`
	PollTimeout time.Duration `env:"COEUS_TELEGRAM_POLL_TIMEOUT" envDefault:"10s"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c, err := env.ParseAs[TelegramConfig]()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return &c
}
