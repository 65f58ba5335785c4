package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
	ChatStream(ctx context.Context, history []Message, onChunk func(chunk string) error) (Message, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Model struct {
	ID   string
	Name string
	Size int64
}

type ModelLister interface {
	Models(ctx context.Context) ([]Model, error)
}
