package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/stretchr/testify/assert"
)

type stubStore struct {
	count    int
	hits     []core.Hit
	countErr error
	searched int
}

func (s *stubStore) Count(context.Context) (int, error) { return s.count, s.countErr }

func (s *stubStore) Search(context.Context, string, int) ([]core.Hit, error) {
	s.searched++
	return s.hits, nil
}

func TestAssembler_Build(t *testing.T) {
	docHit := core.Hit{Content: "the moon is cheese", Label: "source: moon.md, chunk 0"}
	memHit := core.Hit{Content: "User: hi\nAssistant: yo", Label: "2026-01-01 10:00:00"}

	tests := []struct {
		name        string
		docs        *stubStore
		mems        *stubStore
		want        string
		wantSearchD int
	}{
		{
			name: "empty stores leave persona unchanged",
			docs: &stubStore{},
			mems: &stubStore{},
			want: "You are X",
		},
		{
			name:        "documents before memories",
			docs:        &stubStore{count: 1, hits: []core.Hit{docHit}},
			mems:        &stubStore{count: 1, hits: []core.Hit{memHit}},
			wantSearchD: 1,
			want: "You are X\n\n" +
				"Relevant document excerpts:\n\n[1] (source: moon.md, chunk 0)\nthe moon is cheese\n\n\n" +
				"Relevant past conversations:\n\n[1] (2026-01-01 10:00:00)\nUser: hi\nAssistant: yo\n",
		},
		{
			name:        "non-empty store without hits adds nothing",
			docs:        &stubStore{count: 3},
			mems:        &stubStore{},
			wantSearchD: 1,
			want:        "You are X",
		},
		{
			name: "failing store is skipped",
			docs: &stubStore{countErr: errors.New("locked")},
			mems: &stubStore{count: 1, hits: []core.Hit{memHit}},
			want: "You are X\n\nRelevant past conversations:\n\n[1] (2026-01-01 10:00:00)\nUser: hi\nAssistant: yo\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler("You are X", tt.docs, tt.mems)
			assert.Equal(t, tt.want, a.Build(context.Background(), "question"))
			assert.Equal(t, tt.wantSearchD, tt.docs.searched)
		})
	}
}

func TestAssembler_EmptyStoreIsNotSearched(t *testing.T) {
	mems := &stubStore{}
	a := NewAssembler("p", nil, mems)

	a.Build(context.Background(), "q")
	assert.Zero(t, mems.searched)
}

func TestCompose_NumbersHits(t *testing.T) {
	got := Compose("p", []core.Hit{{Content: "a"}, {Content: "b", Label: "x"}}, nil)
	assert.Equal(t, "p\n\nRelevant document excerpts:\n\n[1]\na\n\n[2] (x)\nb\n", got)
}

type pathCfg string

func (p pathCfg) GetPersonaPath() string { return string(p) }

func TestLoadPersona(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "PERSONA.md")
	blank := filepath.Join(dir, "BLANK.md")
	assert.NoError(t, os.WriteFile(custom, []byte("You are a pirate.\n"), 0o644))
	assert.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o644))

	assert.Equal(t, "You are a pirate.", LoadPersona(pathCfg(custom)))
	assert.Equal(t, DefaultPersona, LoadPersona(pathCfg(blank)))
	assert.Equal(t, DefaultPersona, LoadPersona(pathCfg(filepath.Join(dir, "missing.md"))))
}
