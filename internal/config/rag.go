package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/coeus/internal/providers/rag"
	"github.com/sandevgo/coeus/pkg/log"
)

type RAGConfig struct {
	// EmbeddingURL is the Ollama endpoint serving embeddings. Empty means the
	// chat endpoint when the provider is ollama, else the local default.
	EmbeddingURL   string `env:"COEUS_EMBEDDING_URL"`
	EmbeddingModel string `env:"COEUS_EMBEDDING_MODEL" envDefault:"mxbai-embed-large"`
	EmbeddingDim   int    `env:"COEUS_EMBEDDING_DIM" envDefault:"1024"`
	ChunkSize      int    `env:"COEUS_CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap   int    `env:"COEUS_CHUNK_OVERLAP" envDefault:"50"`
	TopK           int    `env:"COEUS_RETRIEVAL_TOP_K" envDefault:"5"`
	WatchDocuments bool   `env:"COEUS_WATCH_DOCUMENTS" envDefault:"false"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	cfg := &RAGConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return cfg
}

func (c RAGConfig) GetEmbeddingModel() string { return c.EmbeddingModel }
func (c RAGConfig) GetEmbeddingDim() int      { return c.EmbeddingDim }

func (c RAGConfig) Chunker() rag.ChunkerConfig {
	return rag.ChunkerConfig{Size: c.ChunkSize, Overlap: c.ChunkOverlap}
}
