package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/tidwall/gjson"
)

type JSONParser struct{}

func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Parse validates a JSON document and optionally extracts a value by gjson path.
func (p *JSONParser) Parse(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		JSON string `json:"json_string"`
		Path string `json:"path"`
	}](args)
	if err != nil {
		return nil, err
	}

	if input.JSON == "" {
		return nil, errors.New("json_string is empty")
	}
	if !gjson.Valid(input.JSON) {
		return nil, errors.New("invalid JSON document")
	}

	if input.Path == "" {
		return map[string]any{"valid": true, "value": gjson.Parse(input.JSON).Value()}, nil
	}

	res := gjson.Get(input.JSON, input.Path)
	if !res.Exists() {
		return nil, fmt.Errorf("path %q not found", input.Path)
	}
	return map[string]any{"valid": true, "path": input.Path, "value": res.Value()}, nil
}

func (p *JSONParser) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "parse_json",
			Description: "Parse and validate a JSON string, optionally extracting a value by path (e.g. items.0.name)",
			Parameters: map[string]core.ToolParameter{
				"json_string": stringParam("The JSON document to parse"),
				"path":        stringParam("Optional dotted path to extract"),
			},
			Required: []string{"json_string"},
			Handler:  p.Parse,
		},
	}
}
