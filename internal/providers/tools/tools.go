package tools

import (
	"encoding/json"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
)

// Provider is a component that contributes built-in tools.
type Provider interface {
	Tools() []core.Tool
}

func decode[T any](args json.RawMessage) (T, error) {
	var input T
	if len(args) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return input, fmt.Errorf("invalid arguments: %w", err)
	}
	return input, nil
}

func stringParam(desc string) core.ToolParameter {
	return core.ToolParameter{Type: "string", Description: desc}
}

// Collect flattens the tools of several providers in order.
func Collect(providers ...Provider) []core.Tool {
	var out []core.Tool
	for _, p := range providers {
		if p == nil {
			continue
		}
		out = append(out, p.Tools()...)
	}
	return out
}
