package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_Load(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    int
		wantErr bool
	}{
		{name: "missing file creates default", content: nil, want: 0},
		{name: "null servers", content: ptr(`{"mcpServers": null}`), want: 0},
		{name: "two servers", content: ptr(`{"mcpServers": {"a": {"command": "x"}, "b": {"url": "http://y"}}}`), want: 2},
		{name: "invalid json", content: ptr(`{"mcpServers": [`), wantErr: true},
		{name: "wrong types", content: ptr(`{"mcpServers": {"a": {"args": "not-a-list"}}}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mcp_config.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0644))
			}

			cfg, err := NewFileStorage(path).Load(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg.MCPServers)
			assert.Len(t, cfg.MCPServers, tt.want)
			assert.FileExists(t, path)
		})
	}
}

func TestFileStorage_Load_MissingDirectory(t *testing.T) {
	_, err := NewFileStorage(filepath.Join(t.TempDir(), "nope", "mcp_config.json")).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStorage_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mcp_config.json")
	fs := NewFileStorage(path)

	in := &Config{MCPServers: map[string]ServerConfig{
		"web": {URL: "http://localhost/mcp", Headers: map[string]string{"Authorization": "Bearer \"x\" <y>"}},
	}}
	require.NoError(t, fs.Save(ctx, in))
	assert.NoFileExists(t, path+".tmp")

	out, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.MCPServers, out.MCPServers)
}

func TestFileStorage_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {}}`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fs := NewFileStorage(path)
	updates, err := fs.Watch(ctx)
	require.NoError(t, err)

	waitFor := func(name string) {
		t.Helper()
		for {
			select {
			case cfg, ok := <-updates:
				require.True(t, ok, "channel closed")
				if _, found := cfg.MCPServers[name]; found {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timeout waiting for %s", name)
			}
		}
	}

	t.Run("in place write", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"direct": {"command": "x"}}}`), 0644))
		waitFor("direct")
	})

	t.Run("atomic rename", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, &Config{MCPServers: map[string]ServerConfig{"atomic": {Command: "x"}}}))
		waitFor("atomic")
	})

	t.Run("invalid then recreated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0644))
		require.NoError(t, os.Remove(path))
		require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"recovered": {"command": "x"}}}`), 0644))
		waitFor("recovered")
	})

	cancel()
	for range updates {
	}
}

func ptr(s string) *string { return &s }
