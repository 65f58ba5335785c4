package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

type fakeRepo struct {
	records []core.MemoryRecord
}

func (r *fakeRepo) AddMemory(_ context.Context, rec core.MemoryRecord, _ []float32) (int64, error) {
	rec.ID = int64(len(r.records) + 1)
	r.records = append(r.records, rec)
	return rec.ID, nil
}

func (r *fakeRepo) SearchMemories(_ context.Context, _ []float32, k int) ([]core.Hit, error) {
	var hits []core.Hit
	for i := len(r.records) - 1; i >= 0 && len(hits) < k; i-- {
		hits = append(hits, core.Hit{ID: r.records[i].ID, Content: r.records[i].Content})
	}
	return hits, nil
}

func (r *fakeRepo) CountMemories(context.Context) (int, error) { return len(r.records), nil }

func (r *fakeRepo) DeleteAllMemories(context.Context) (int, error) {
	n := len(r.records)
	r.records = nil
	return n, nil
}

func (r *fakeRepo) ListBySession(_ context.Context, id string) ([]core.MemoryRecord, error) {
	var out []core.MemoryRecord
	for _, rec := range r.records {
		if rec.SessionID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestMemory_AddSplitsSessionsByGap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	sessions := session.NewManager(repo, session.WithClock(func() time.Time { return now }))
	mem := NewMemory(repo, &fakeEmbedder{}, sessions)

	_, err := mem.Add(ctx, mem.Touch(), "hi", "hello")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	_, err = mem.Add(ctx, mem.Touch(), "still there?", "yes")
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = mem.Add(ctx, mem.Touch(), "back", "welcome back")
	require.NoError(t, err)

	require.Len(t, repo.records, 3)
	assert.Equal(t, repo.records[0].SessionID, repo.records[1].SessionID)
	assert.NotEqual(t, repo.records[1].SessionID, repo.records[2].SessionID)
	assert.Equal(t, "User: hi\nAssistant: hello", repo.records[0].Content)
	assert.Equal(t, []int{1, 2, 1}, []int{repo.records[0].Ordinal, repo.records[1].Ordinal, repo.records[2].Ordinal})

	first, err := mem.Reconstruct(ctx, repo.records[0].SessionID)
	require.NoError(t, err)
	assert.Len(t, first, 2)
}

func TestMemory_AddEmbedFailure(t *testing.T) {
	repo := &fakeRepo{}
	mem := NewMemory(repo, &fakeEmbedder{err: errors.New("ollama down")}, session.NewManager(repo))

	_, err := mem.Add(context.Background(), mem.Touch(), "a", "b")
	assert.ErrorContains(t, err, "ollama down")
	assert.Empty(t, repo.records)
}

func TestMemory_SearchAndClear(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	mem := NewMemory(repo, &fakeEmbedder{}, session.NewManager(repo))

	for _, q := range []string{"one", "two", "three"} {
		_, err := mem.Add(ctx, mem.Touch(), q, "ok")
		require.NoError(t, err)
	}

	hits, err := mem.Search(ctx, "anything", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	removed, err := mem.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := mem.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
