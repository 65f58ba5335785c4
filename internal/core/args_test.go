package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "empty", raw: "", want: "{}"},
		{name: "null", raw: "null", want: "{}"},
		{name: "object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "string wrapped object", raw: `"{\"a\":1}"`, want: `{"a":1}`},
		{name: "empty string", raw: `""`, want: "{}"},
		{name: "array", raw: `[1]`, wantErr: true},
		{name: "garbage string", raw: `"nope"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArguments(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestToolSchema(t *testing.T) {
	tool := Tool{
		Name: "x",
		Parameters: map[string]ToolParameter{
			"path": {Type: "string", Description: "file path"},
		},
		Required: []string{"path"},
	}

	data, err := json.Marshal(tool.Schema())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"object","properties":{"path":{"type":"string","description":"file path"}},"required":["path"]}`,
		string(data))
}
