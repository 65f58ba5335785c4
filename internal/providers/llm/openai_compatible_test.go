package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatible_Chat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"x1","type":"function","function":{"name":"calculate","arguments":"{\"expression\":\"2+2\"}"}}
		]}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL: srv.URL, APIKey: "secret", Model: "m", AuthHeader: "Authorization", AuthPrefix: "Bearer ",
	})

	msg, err := p.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "2+2?"}}, []core.Tool{{
		Name:       "calculate",
		Parameters: map[string]core.ToolParameter{"expression": {Type: "string"}},
		Required:   []string{"expression"},
	}})
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "calculate", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"expression":"2+2"}`, string(msg.ToolCalls[0].Arguments))
	assert.Equal(t, "m", got["model"])
	assert.Len(t, got["tools"], 1)
}

func TestOpenAICompatible_ChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: srv.URL, Model: "m"})
	_, err := p.Chat(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "http 429")
}

func TestOpenAICompatible_ChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: srv.URL, Model: "m"})

	var chunks []string
	msg, err := p.ChatStream(context.Background(), nil, func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	assert.Equal(t, "Hello", msg.Content)
}

func TestToOpenAIMessages_PairsToolResults(t *testing.T) {
	out := toOpenAIMessages([]core.Message{
		{Role: core.RoleUser, Content: "time?"},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "get_current_time", Arguments: json.RawMessage(`"{}"`)}}},
		{Role: core.RoleTool, ToolName: "get_current_time", Content: `{"time":"12:00"}`},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "calculate"}}},
		{Role: core.RoleTool, ToolName: "calculate", Content: `{"result":4}`},
	})

	require.Len(t, out, 5)
	assert.Equal(t, "call_1", out[1].ToolCalls[0].ID)
	assert.Equal(t, "{}", out[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "call_1", out[2].ToolCallID)
	assert.Equal(t, "call_2", out[4].ToolCallID)
}

func TestOpenAICompatible_Models(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"id":"gpt-a"},{"id":"gpt-b","name":"GPT B"}]}`)
	}))
	defer srv.Close()

	models, err := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: srv.URL}).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Model{{ID: "gpt-a", Name: "gpt-a"}, {ID: "gpt-b", Name: "GPT B"}}, models)
}
