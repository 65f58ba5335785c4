package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/coeus/internal/core"
)

// DynamicProvider lets the model be switched at runtime without rebuilding the agent.
type DynamicProvider struct {
	config  core.ProviderConfig
	current atomic.Pointer[Provider]
	mu      sync.Mutex
}

func NewDynamicProvider(ctx context.Context, config core.ProviderConfig) (*DynamicProvider, error) {
	d := &DynamicProvider{config: config}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}
	d.current.Store(&provider)
	return d, nil
}

func (d *DynamicProvider) load() Provider {
	return *d.current.Load()
}

func (d *DynamicProvider) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	return d.load().Chat(ctx, history, tools)
}

func (d *DynamicProvider) ChatStream(ctx context.Context, history []core.Message, onChunk func(string) error) (core.Message, error) {
	return d.load().ChatStream(ctx, history, onChunk)
}

func (d *DynamicProvider) Models(ctx context.Context) ([]core.Model, error) {
	return d.load().Models(ctx)
}

func (d *DynamicProvider) GetModel() string {
	return d.config.GetModel()
}

func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	provider, err := NewProvider(ctx, d.config)
	if err != nil {
		_ = d.config.SetModel(previous)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(&provider)
	return nil
}
