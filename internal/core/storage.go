package core

import "context"

type MemoryRepository interface {
	AddMemory(ctx context.Context, rec MemoryRecord, embedding []float32) (int64, error)
	SearchMemories(ctx context.Context, embedding []float32, k int) ([]Hit, error)
	CountMemories(ctx context.Context) (int, error)
	DeleteAllMemories(ctx context.Context) (int, error)
	ListBySession(ctx context.Context, sessionID string) ([]MemoryRecord, error)
}

type DocumentRepository interface {
	AddChunks(ctx context.Context, chunks []DocumentChunk, embeddings [][]float32) error
	SearchChunks(ctx context.Context, embedding []float32, k int) ([]Hit, error)
	CountChunks(ctx context.Context) (int, error)
	DeleteAllChunks(ctx context.Context) (int, error)
	DeleteSource(ctx context.Context, source string) (int, error)
	// ReplaceSource atomically swaps all chunks of source for the given ones.
	ReplaceSource(ctx context.Context, source string, chunks []DocumentChunk, embeddings [][]float32) (int, error)
	HasSource(ctx context.Context, source string) (bool, error)
	Sources(ctx context.Context) ([]DocumentInfo, error)
}
