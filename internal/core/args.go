package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeArguments normalises tool call arguments into a JSON object.
// Models send either the object itself or a string holding its serialized
// form. Empty or null arguments decode to {}.
func DecodeArguments(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}"), nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		inner = string(bytes.TrimSpace([]byte(inner)))
		if inner == "" {
			return json.RawMessage("{}"), nil
		}
		raw = json.RawMessage(inner)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if obj == nil {
		return json.RawMessage("{}"), nil
	}
	return raw, nil
}

// ArgumentsMap decodes the call arguments into a generic map.
func (c ToolCall) ArgumentsMap() (map[string]any, error) {
	raw, err := DecodeArguments(c.Arguments)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
