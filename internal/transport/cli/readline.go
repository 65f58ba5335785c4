package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/agent"
	"github.com/sandevgo/coeus/internal/service/ui"
	"github.com/sandevgo/coeus/internal/service/voice"
	"github.com/sandevgo/coeus/pkg/log"
)

type Runner interface {
	Run(ctx context.Context, input string, onEvent agent.EventHandler) (agent.Outcome, error)
}

type HistoryConfig interface {
	GetRuntimePath() string
	GetHistoryPath() string
}

type ReadLine struct {
	agent  Runner
	router core.CmdRouter
	voice  *voice.Voice
	rl     *readline.Instance
}

// NewReadLine opens the prompt. v may be nil when speech output is not wired.
func NewReadLine(a Runner, router core.CmdRouter, v *voice.Voice, cfg HistoryConfig) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     cfg.GetHistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		agent:  a,
		router: router,
		voice:  v,
		rl:     rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("chat started, type /help for commands or exit to quit")

	out := r.rl.Stdout()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if reply, ok := r.router.Execute(ctx, line); ok {
			fmt.Fprintln(out, reply)
			continue
		}

		r.turn(ctx, out, line)
	}
}

func (r *ReadLine) turn(ctx context.Context, out io.Writer, line string) {
	var speech *voice.Turn
	if r.voice != nil {
		speech = r.voice.NewTurn()
	}

	started := false
	_, err := r.agent.Run(ctx, line, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToolCall:
			fmt.Fprintln(out, ui.ToolNotice(ev.ToolName, string(ev.Args)))
		case agent.EventContent:
			if !started {
				fmt.Fprint(out, "Coeus: ")
				started = true
			}
			fmt.Fprint(out, ev.Content)
			if speech != nil {
				speech.Write(ev.Content)
			}
		}
	})
	if started {
		fmt.Fprintln(out)
	}
	if speech != nil {
		speech.Finish()
	}

	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("agent run failed")
		fmt.Fprintln(out, ui.ErrorStyle.Render("Error: "+err.Error()))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
