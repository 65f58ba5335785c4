package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/sandevgo/coeus/pkg/log"
)

const (
	OllamaURLEnv    = "COEUS_TEST_OLLAMA_URL"
	ChatModelEnv    = "COEUS_TEST_MODEL"
	EmbedModelEnv   = "COEUS_TEST_EMBED_MODEL"
	MCPConfigEnv    = "COEUS_TEST_MCP_CONFIG"
	defaultModel    = "qwen3:8b"
	defaultEmbedder = "mxbai-embed-large"
)

// Ollama returns the endpoint for live tests, skipping when none is set.
func Ollama(t *testing.T) (url, chatModel, embedModel string) {
	t.Helper()
	LoadEnv(t)

	url = os.Getenv(OllamaURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping live Ollama test", OllamaURLEnv)
	}
	return url, envOr(ChatModelEnv, defaultModel), envOr(EmbedModelEnv, defaultEmbedder)
}

// LoadEnv reads test/.env when present so live settings stay out of the shell.
func LoadEnv(t *testing.T) {
	t.Helper()
	path := filepath.Join(Dir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		t.Logf("failed to load %s: %v", path, err)
	}
}

// Context returns a context with a debug logger attached.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, flush := log.NewContextWithLogger(context.Background(), testing.Verbose())
	t.Cleanup(flush)
	return ctx
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
