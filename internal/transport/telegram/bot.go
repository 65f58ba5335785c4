package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/coeus/internal/config"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/agent"
	"github.com/sandevgo/coeus/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Runner interface {
	Run(ctx context.Context, input string, onEvent agent.EventHandler) (agent.Outcome, error)
}

type Bot struct {
	bot     *tele.Bot
	sender  *sender
	agent   Runner
	router  core.CmdRouter
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	a Runner,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		sender:  newSender(b),
		agent:   a,
		router:  router,
		ownerID: cfg.OwnerID,
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner talks to the agent; everyone else is ignored silently.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx).With().Int64("chat", c.Chat().ID).Logger()
	ctx = logger.WithContext(ctx)

	if reply, ok := b.router.Execute(ctx, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
	}

	_ = c.Notify(tele.Typing)

	var reply strings.Builder
	out, err := b.agent.Run(ctx, c.Text(), func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToolCall:
			if _, err := b.bot.Send(c.Chat(), fmt.Sprintf("🛠 Using tool: %s", ev.ToolName), tele.Silent); err != nil {
				logger.Warn().Err(err).Msg("failed to send tool notice")
			}
			_ = c.Notify(tele.Typing)
		case agent.EventContent:
			reply.WriteString(ev.Content)
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("agent run failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	text := reply.String()
	if text == "" {
		text = out.Response
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), text, false)
}
