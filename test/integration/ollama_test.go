package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/coeus/internal/providers/llm"
	"github.com/sandevgo/coeus/internal/providers/rag"
	"github.com/sandevgo/coeus/internal/providers/tools"
	"github.com/sandevgo/coeus/internal/service/agent"
	"github.com/sandevgo/coeus/internal/service/memory"
	"github.com/sandevgo/coeus/internal/service/prompt"
	"github.com/sandevgo/coeus/internal/service/registry"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/sandevgo/coeus/internal/storage/sqlite"
	"github.com/sandevgo/coeus/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embedDim = 1024

func TestOllamaEmbedder(t *testing.T) {
	url, _, embedModel := test.Ollama(t)
	ctx, cancel := context.WithTimeout(test.Context(t), 2*time.Minute)
	defer cancel()

	client, err := llm.NewOllamaClient(url, "")
	require.NoError(t, err)
	embedder := rag.NewEmbedder(client, embedModel, embedDim)

	vecs, err := embedder.Embed(ctx, []string{"the cat sat on the mat", "quarterly revenue grew"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], embedDim)
}

func TestAgentTurnWithCalculator(t *testing.T) {
	url, chatModel, embedModel := test.Ollama(t)
	ctx, cancel := context.WithTimeout(test.Context(t), 5*time.Minute)
	defer cancel()

	db, err := sqlite.NewDB(ctx, filepath.Join(t.TempDir(), "coeus.db"), embedDim)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client, err := llm.NewOllamaClient(url, "")
	require.NoError(t, err)
	embedder := rag.NewEmbedder(client, embedModel, embedDim)

	provider, err := llm.NewOllama(url, "", chatModel, 4096)
	require.NoError(t, err)

	repo := sqlite.NewMemoryRepo(db)
	sessions := session.NewManager(repo)
	mem := memory.NewMemory(repo, embedder, sessions)

	reg := registry.New()
	reg.MustRegister(tools.Collect(tools.NewCalculator())...)

	assembler := prompt.NewAssembler("You are a precise assistant. Use the calculate tool for arithmetic.", nil, mem)
	ag := agent.New(provider, reg, assembler, mem)

	var calls []string
	out, err := ag.Run(ctx, "What is 1234 * 5678? Use the calculator.", func(ev agent.Event) {
		if ev.Type == agent.EventToolCall {
			calls = append(calls, ev.ToolName)
		}
	})
	require.NoError(t, err)
	assert.Contains(t, calls, "calculate")
	assert.Contains(t, strings.ReplaceAll(out.Response, ",", ""), "7006652")

	records, err := sessions.Reconstruct(ctx, sessions.ID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Ordinal)

	hits, err := mem.Search(ctx, "multiplication", 1)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Content, "User: What is 1234 * 5678")

}
