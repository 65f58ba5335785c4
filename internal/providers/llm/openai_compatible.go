package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sandevgo/coeus/internal/core"
)

type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(strings.TrimRight(cfg.BaseURL, "/"), cfg.APIKey, cfg.Model),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type oaFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function oaFunctionCall `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
	Name       string       `json:"name,omitempty"`
}

type oaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string, len(o.extraHeaders)+1)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (o *OpenAICompatible) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	payload := map[string]any{
		"model":    o.model,
		"messages": toOpenAIMessages(history),
	}
	if len(tools) > 0 {
		payload["tools"] = toOpenAITools(tools)
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
	if err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	return parseOpenAIResponse(resp)
}

// ChatStream requests a server-sent event stream and forwards content deltas.
func (o *OpenAICompatible) ChatStream(ctx context.Context, history []core.Message, onChunk func(string) error) (core.Message, error) {
	payload := map[string]any{
		"model":    o.model,
		"messages": toOpenAIMessages(history),
		"stream":   true,
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
	if err != nil {
		return core.Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return core.Message{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return core.Message{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		text := chunk.Choices[0].Delta.Content
		full.WriteString(text)
		if onChunk != nil {
			if err := onChunk(text); err != nil {
				return core.Message{}, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return core.Message{}, fmt.Errorf("read stream: %w", err)
	}

	return core.Message{Role: core.RoleAssistant, Content: full.String()}, nil
}

func (o *OpenAICompatible) Models(ctx context.Context) ([]core.Model, error) {
	return o.fetchModels(ctx, o.headers())
}

func parseOpenAIResponse(resp *http.Response) (core.Message, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Message{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.Message{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Choices []struct {
			Message oaMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return core.Message{}, fmt.Errorf("empty choices: %s", string(data))
	}

	msg := result.Choices[0].Message
	out := core.Message{Role: core.RoleAssistant, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(argumentsOrEmpty(tc.Function.Arguments)),
		})
	}
	return out, nil
}

func argumentsOrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}

// toOpenAIMessages assigns call ids so every tool result points at the
// assistant call right before it.
func toOpenAIMessages(history []core.Message) []oaMessage {
	out := make([]oaMessage, 0, len(history))
	var pending []string
	seq := 0

	for _, m := range history {
		msg := oaMessage{Role: string(m.Role), Content: m.Content}

		switch m.Role {
		case core.RoleAssistant:
			pending = pending[:0]
			for _, tc := range m.ToolCalls {
				seq++
				id := fmt.Sprintf("call_%d", seq)
				pending = append(pending, id)

				args, err := core.DecodeArguments(tc.Arguments)
				if err != nil {
					args = json.RawMessage("{}")
				}
				msg.ToolCalls = append(msg.ToolCalls, oaToolCall{
					ID:       id,
					Type:     "function",
					Function: oaFunctionCall{Name: tc.Name, Arguments: string(args)},
				})
			}
		case core.RoleTool:
			if len(pending) > 0 {
				msg.ToolCallID = pending[0]
				pending = pending[1:]
			}
			msg.Name = m.ToolName
		}

		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []core.Tool) []oaTool {
	out := make([]oaTool, 0, len(tools))
	for _, t := range tools {
		var tool oaTool
		tool.Type = "function"
		tool.Function.Name = t.Name
		tool.Function.Description = t.Description
		tool.Function.Parameters = t.Schema()
		out = append(out, tool)
	}
	return out
}
