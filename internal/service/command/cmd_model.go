package command

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sandevgo/coeus/internal/core"
)

type ModelCommand struct {
	settings  Settings
	models    core.ModelLister
	formatter *ResponseFormatter
}

func (c *ModelCommand) Name() string        { return "model" }
func (c *ModelCommand) Description() string { return "Show, list or change the chat model" }

func (c *ModelCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		out := []string{
			c.formatter.Info("Current Model"),
			c.formatter.Label("Model", c.settings.Model()),
		}
		if c.models != nil {
			if list, err := c.models.Models(ctx); err == nil && len(list) > 0 {
				items := make([]string, 0, len(list))
				for _, m := range list {
					item := m.ID
					if m.Size > 0 {
						item = fmt.Sprintf("%s (%s)", m.ID, humanize.Bytes(uint64(m.Size)))
					}
					items = append(items, item)
				}
				out = append(out, "\n", c.formatter.Info("Available"), c.formatter.List(items))
			}
		}
		out = append(out, c.formatter.Usage("/model <name>"))
		return c.formatter.Combine(out...), nil
	}

	if err := c.settings.ChangeModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Model changed to `%s`", c.settings.Model())), nil
}

type VoiceCommand struct {
	settings  Settings
	on        bool
	formatter *ResponseFormatter
}

func (c *VoiceCommand) Name() string {
	if c.on {
		return "tts"
	}
	return "notts"
}

func (c *VoiceCommand) Description() string {
	if c.on {
		return "Speak responses aloud"
	}
	return "Stop speaking responses"
}

func (c *VoiceCommand) Execute(ctx context.Context, args []string) (string, error) {
	if err := c.settings.SetVoice(c.on); err != nil {
		return "", err
	}
	if c.on {
		return c.formatter.Success("TTS enabled."), nil
	}
	return c.formatter.Success("TTS disabled."), nil
}
