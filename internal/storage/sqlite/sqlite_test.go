package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 3

func newTestDB(t *testing.T) *MemoryRepo {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "coeus.db"), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMemoryRepo(db)
}

func TestVecExtensionLoaded(t *testing.T) {
	repo := newTestDB(t)

	var version string
	require.NoError(t, repo.db.QueryRow("SELECT vec_version()").Scan(&version))
	assert.NotEmpty(t, version)
}

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	n, err := repo.CountMemories(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	records := []struct {
		rec core.MemoryRecord
		vec []float32
	}{
		{core.MemoryRecord{SessionID: "a", Ordinal: 2, Content: "second", CreatedAt: t0}, []float32{0, 1, 0}},
		{core.MemoryRecord{SessionID: "a", Ordinal: 1, Content: "first", CreatedAt: t0}, []float32{1, 0, 0}},
		{core.MemoryRecord{SessionID: "b", Ordinal: 1, Content: "other", CreatedAt: t0}, []float32{0, 0, 1}},
	}
	for _, r := range records {
		_, err := repo.AddMemory(ctx, r.rec, r.vec)
		require.NoError(t, err)
	}

	t.Run("search ranks closest first", func(t *testing.T) {
		hits, err := repo.SearchMemories(ctx, []float32{0.9, 0.1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "first", hits[0].Content)
		assert.NotEmpty(t, hits[0].Label)
	})

	t.Run("list by session", func(t *testing.T) {
		got, err := repo.ListBySession(ctx, "a")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "second", got[1].Content)

		none, err := repo.ListBySession(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("delete all", func(t *testing.T) {
		removed, err := repo.DeleteAllMemories(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		n, err := repo.CountMemories(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestDocumentRepo(t *testing.T) {
	ctx := context.Background()
	docs := NewDocumentRepo(newTestDB(t).db)

	chunks := []core.DocumentChunk{
		{Source: "a.md", Index: 0, Text: "alpha"},
		{Source: "a.md", Index: 1, Text: "beta"},
		{Source: "b.txt", Index: 0, Text: "gamma"},
	}
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	require.NoError(t, docs.AddChunks(ctx, chunks, vecs))

	assert.Error(t, docs.AddChunks(ctx, chunks, vecs[:1]))

	n, err := docs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := docs.SearchChunks(ctx, []float32{0, 0.1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "gamma", hits[0].Content)
	assert.Equal(t, "source: b.txt, chunk 0", hits[0].Label)

	sources, err := docs.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a.md", sources[0].Name)
	assert.Equal(t, 2, sources[0].Chunks)

	ok, err := docs.HasSource(ctx, "a.md")
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("replace source is atomic", func(t *testing.T) {
		// a bad vector fails the insert after the delete already ran
		_, err := docs.ReplaceSource(ctx, "a.md",
			[]core.DocumentChunk{{Source: "a.md", Index: 0, Text: "new"}},
			[][]float32{{}})
		require.Error(t, err)
		ok, err := docs.HasSource(ctx, "a.md")
		require.NoError(t, err)
		assert.True(t, ok)

		removed, err := docs.ReplaceSource(ctx, "b.txt",
			[]core.DocumentChunk{{Source: "b.txt", Index: 0, Text: "delta"}, {Source: "b.txt", Index: 1, Text: "epsilon"}},
			[][]float32{{0, 0, 1}, {0, 1, 1}})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		hits, err := docs.SearchChunks(ctx, []float32{0, 0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "delta", hits[0].Content)
	})

	removed, err := docs.DeleteSource(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, err = docs.HasSource(ctx, "a.md")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err = docs.DeleteAllChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestMessagesRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMessagesRepo(newTestDB(t).db)

	msgs := []core.Message{
		{Role: core.RoleUser, Content: "what time is it"},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "get_current_time"}}},
		{Role: core.RoleTool, ToolName: "get_current_time", Content: `{"time":"12:00"}`},
		{Role: core.RoleAssistant, Content: "noon"},
	}
	require.NoError(t, repo.AppendMessages(ctx, "s1", msgs))

	got, err := repo.GetMessages(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)

	last, err := repo.GetMessages(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, msgs[2:], last)
}
