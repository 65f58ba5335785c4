package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/sandevgo/coeus/internal/core"
)

const defaultTimeFormat = "%Y-%m-%d %H:%M:%S"

type Clock struct {
	now func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) CurrentTime(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Format string `json:"format"`
	}](args)
	if err != nil {
		return nil, err
	}

	format := input.Format
	if format == "" {
		format = defaultTimeFormat
	}

	now := c.now()
	return map[string]any{
		"datetime":  strftime.Format(format, now),
		"timezone":  now.Format("MST"),
		"timestamp": now.Unix(),
	}, nil
}

func (c *Clock) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "get_current_time",
			Description: "Get the current local date and time",
			Parameters: map[string]core.ToolParameter{
				"format": stringParam("Optional strftime format, default %Y-%m-%d %H:%M:%S"),
			},
			Handler: c.CurrentTime,
		},
	}
}
