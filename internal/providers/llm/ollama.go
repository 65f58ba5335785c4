package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/sandevgo/coeus/internal/core"
)

const DefaultOllamaURL = "http://localhost:11434"

type Ollama struct {
	client *api.Client
	model  string
	numCtx int
}

// NewOllama builds a client for the Ollama native API. apiKey is only needed
// for hosted Ollama endpoints.
func NewOllama(baseURL, apiKey, model string, numCtx int) (*Ollama, error) {
	client, err := NewOllamaClient(baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	return &Ollama{client: client, model: model, numCtx: numCtx}, nil
}

// NewOllamaClient is shared with the embedder and the installer model picker.
func NewOllamaClient(baseURL, apiKey string) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	httpClient := http.DefaultClient
	if apiKey != "" {
		httpClient = &http.Client{Transport: bearerTransport{token: apiKey, next: http.DefaultTransport}}
	}
	return api.NewClient(parsed, httpClient), nil
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(req)
}

func (o *Ollama) options() map[string]any {
	if o.numCtx <= 0 {
		return nil
	}
	return map[string]any{"num_ctx": o.numCtx}
}

func (o *Ollama) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(history),
		Tools:    toOllamaTools(tools),
		Stream:   &stream,
		Options:  o.options(),
	}

	var out core.Message
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out = fromOllamaMessage(resp.Message)
		return nil
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("ollama chat: %w", err)
	}
	return out, nil
}

func (o *Ollama) ChatStream(ctx context.Context, history []core.Message, onChunk func(string) error) (core.Message, error) {
	stream := true
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(history),
		Stream:   &stream,
		Options:  o.options(),
	}

	var full strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		chunk := resp.Message.Content
		if chunk == "" {
			return nil
		}
		full.WriteString(chunk)
		if onChunk != nil {
			return onChunk(chunk)
		}
		return nil
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("ollama stream: %w", err)
	}
	return core.Message{Role: core.RoleAssistant, Content: full.String()}, nil
}

func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama not available: %w", err)
	}

	models := make([]core.Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, core.Model{ID: m.Name, Name: m.Name, Size: m.Size})
	}
	return models, nil
}

func toOllamaMessages(history []core.Message) []api.Message {
	out := make([]api.Message, 0, len(history))
	for _, m := range history {
		msg := api.Message{
			Role:     string(m.Role),
			Content:  m.Content,
			ToolName: m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			args, err := tc.ArgumentsMap()
			if err != nil {
				args = map[string]any{}
			}
			msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{Name: tc.Name, Arguments: args},
			})
		}
		out = append(out, msg)
	}
	return out
}

func fromOllamaMessage(m api.Message) core.Message {
	out := core.Message{Role: core.RoleAssistant, Content: m.Content}
	for _, tc := range m.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{Name: tc.Function.Name, Arguments: args})
	}
	return out
}

func toOllamaTools(tools []core.Tool) []api.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]api.ToolProperty, len(t.Parameters))
		for name, p := range t.Parameters {
			prop := api.ToolProperty{
				Type:        api.PropertyType{p.Type},
				Description: p.Description,
				Items:       p.Items,
			}
			for _, e := range p.Enum {
				prop.Enum = append(prop.Enum, e)
			}
			props[name] = prop
		}

		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       "object",
					Required:   t.Required,
					Properties: props,
				},
			},
		})
	}
	return out
}
