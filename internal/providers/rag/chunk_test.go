package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordCount(s string) int { return len(strings.Fields(s)) }

func TestChunkText(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		cfg            ChunkerConfig
		expectedChunks []string
	}{
		{
			name:           "Empty input",
			text:           "",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name:           "Whitespace only",
			text:           "   \n\t   ",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name:           "Fits in one chunk",
			text:           "Hello world.",
			cfg:            ChunkerConfig{Size: 10, Overlap: 2},
			expectedChunks: []string{"Hello world."},
		},
		{
			name:           "No overlap",
			text:           "one two three four five six",
			cfg:            ChunkerConfig{Size: 3, Overlap: 0},
			expectedChunks: []string{"one two three", "four five six"},
		},
		{
			name: "With overlap",
			text: "one two three four five six seven",
			cfg:  ChunkerConfig{Size: 4, Overlap: 2},
			expectedChunks: []string{
				"one two three four",
				"three four five six",
				"five six seven",
			},
		},
		{
			name:           "Whitespace is normalised",
			text:           "a\n\nb\tc   d",
			cfg:            ChunkerConfig{Size: 2, Overlap: 0},
			expectedChunks: []string{"a b", "c d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.CountTokens = wordCount
			chunks, err := ChunkText(tt.text, tt.cfg)
			require.NoError(t, err)

			var got []string
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, c.EndWord-c.StartWord, c.TokenSize)
				got = append(got, c.Text)
			}
			assert.Equal(t, tt.expectedChunks, got)
		})
	}
}

func TestChunkText_WordRanges(t *testing.T) {
	words := make([]string, 1200)
	for i := range words {
		words[i] = "w"
	}

	chunks, err := ChunkText(strings.Join(words, " "), ChunkerConfig{Size: 500, Overlap: 50, CountTokens: wordCount})
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, [2]int{0, 500}, [2]int{chunks[0].StartWord, chunks[0].EndWord})
	assert.Equal(t, [2]int{450, 950}, [2]int{chunks[1].StartWord, chunks[1].EndWord})
	assert.Equal(t, [2]int{900, 1200}, [2]int{chunks[2].StartWord, chunks[2].EndWord})
}

func TestChunkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkerConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultChunkerConfig()},
		{name: "overlap equals size", cfg: ChunkerConfig{Size: 10, Overlap: 10}, wantErr: true},
		{name: "overlap above size", cfg: ChunkerConfig{Size: 10, Overlap: 20}, wantErr: true},
		{name: "zero size", cfg: ChunkerConfig{Size: 0}, wantErr: true},
		{name: "negative overlap", cfg: ChunkerConfig{Size: 5, Overlap: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
