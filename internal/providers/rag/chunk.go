package rag

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

type Chunk struct {
	Text      string
	Index     int
	StartWord int
	EndWord   int
	TokenSize int
}

type ChunkerConfig struct {
	// Size and Overlap are measured in words.
	Size    int
	Overlap int
	// CountTokens annotates each chunk. Defaults to CountTokens.
	CountTokens func(string) int
}

func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

func (c ChunkerConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.Overlap, c.Size)
	}
	return nil
}

// ChunkText splits text into windows of cfg.Size words, each starting
// cfg.Size-cfg.Overlap words after the previous one. EndWord is exclusive.
func ChunkText(text string, cfg ChunkerConfig) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	count := cfg.CountTokens
	if count == nil {
		count = CountTokens
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := cfg.Size - cfg.Overlap
	var chunks []Chunk

	for start := 0; start < len(words); start += step {
		end := min(start+cfg.Size, len(words))

		body := strings.Join(words[start:end], " ")
		chunks = append(chunks, Chunk{
			Text:      body,
			Index:     len(chunks),
			StartWord: start,
			EndWord:   end,
			TokenSize: count(body),
		})

		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
