package core

import (
	"context"
	"encoding/json"
)

const (
	CoeusName      = "Coeus"
	CoeusUserAgent = "Coeus-Agent/0.1"
	CoeusVersion   = "0.1.0"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to run a named tool.
// Arguments holds either a JSON object or a JSON string wrapping one.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolName is set on tool-role messages.
	ToolName string `json:"tool_name,omitempty"`
}

type ToolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// ToolParameter describes one property of a tool's argument object.
type ToolParameter struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Items       any      `json:"items,omitempty"`
}

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]ToolParameter
	Required    []string
	Handler     ToolHandler `json:"-"`
}

// Schema renders the argument object as a JSON Schema document.
func (t Tool) Schema() map[string]any {
	props := make(map[string]any, len(t.Parameters))
	for name, p := range t.Parameters {
		props[name] = p
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(t.Required) > 0 {
		schema["required"] = t.Required
	}
	return schema
}
