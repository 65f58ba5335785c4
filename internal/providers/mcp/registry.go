package mcp

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

type Storage interface {
	Load(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg *Config) error
	Watch(ctx context.Context) (<-chan Config, error)
}

// ServerRegistry is the in-memory view of configured servers. Mutations are
// persisted before they become visible.
type ServerRegistry struct {
	storage Storage
	mu      sync.RWMutex
	servers map[string]ServerConfig
}

func NewServerRegistry(storage Storage) *ServerRegistry {
	return &ServerRegistry{
		storage: storage,
		servers: make(map[string]ServerConfig),
	}
}

func (r *ServerRegistry) Load(ctx context.Context) error {
	cfg, err := r.storage.Load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.servers = cfg.MCPServers
	if r.servers == nil {
		r.servers = make(map[string]ServerConfig)
	}
	r.mu.Unlock()
	return nil
}

func (r *ServerRegistry) Add(ctx context.Context, name string, cfg ServerConfig) error {
	if name == "" {
		return fmt.Errorf("server name is empty")
	}
	if _, err := cfg.GetTransport(); err != nil {
		return err
	}
	return r.update(ctx, func(servers map[string]ServerConfig) { servers[name] = cfg })
}

func (r *ServerRegistry) Remove(ctx context.Context, name string) error {
	return r.update(ctx, func(servers map[string]ServerConfig) { delete(servers, name) })
}

func (r *ServerRegistry) update(ctx context.Context, mutate func(map[string]ServerConfig)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := maps.Clone(r.servers)
	if next == nil {
		next = make(map[string]ServerConfig)
	}
	mutate(next)

	if err := r.storage.Save(ctx, &Config{MCPServers: next}); err != nil {
		return err
	}
	r.servers = next
	return nil
}

func (r *ServerRegistry) Get(name string) (ServerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.servers[name]
	return cfg, ok
}

func (r *ServerRegistry) List() map[string]ServerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.servers)
}

// Watch forwards storage updates after applying them to the registry.
func (r *ServerRegistry) Watch(ctx context.Context) (<-chan Config, error) {
	ch, err := r.storage.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Config)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-ch:
				if !ok {
					return
				}

				r.mu.Lock()
				r.servers = maps.Clone(cfg.MCPServers)
				if r.servers == nil {
					r.servers = make(map[string]ServerConfig)
				}
				r.mu.Unlock()

				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
