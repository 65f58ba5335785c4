package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/sandevgo/coeus/pkg/log"
	"github.com/sandevgo/coeus/pkg/retry"
)

// Embedder turns text into vectors with an Ollama embedding model.
type Embedder struct {
	client  *api.Client
	model   string
	dim     int
	retrier *retry.Retrier
}

func NewEmbedder(client *api.Client, model string, dim int) *Embedder {
	return &Embedder{
		client:  client,
		model:   model,
		dim:     dim,
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    3,
			BackoffFactor: 2,
			InitialDelay:  250 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Jitter:        50 * time.Millisecond,
		}),
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp *api.EmbedResponse
	err := e.retrier.Do(ctx, func() error {
		var err error
		resp, err = e.client.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: texts})
		var status api.StatusError
		if errors.As(err, &status) && status.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", e.model, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed with %s: got %d vectors for %d inputs", e.model, len(resp.Embeddings), len(texts))
	}
	for _, v := range resp.Embeddings {
		if e.dim > 0 && len(v) != e.dim {
			return nil, fmt.Errorf("embedding dimension %d does not match configured %d", len(v), e.dim)
		}
	}

	log.FromCtx(ctx).Debug().Int("inputs", len(texts)).Str("model", e.model).Msg("embedded")
	return resp.Embeddings, nil
}
