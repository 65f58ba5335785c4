package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type ConnectionPool interface {
	Add(ctx context.Context, name string, cfg ServerConfig) (*ManagedClient, error)
	Del(name string) error
	Get(name string) (*ManagedClient, bool)
	All() map[string]*ManagedClient
	Close() error
}

var _ ConnectionPool = (*Pool)(nil)

type TransportFactory func(TransportType) (Transport, error)

// Pool owns one live client per server name.
type Pool struct {
	mu      sync.RWMutex
	clients map[string]*ManagedClient
	factory TransportFactory
}

func NewPool() *Pool {
	return NewPoolWithFactory(NewTransport)
}

func NewPoolWithFactory(factory TransportFactory) *Pool {
	return &Pool{
		clients: make(map[string]*ManagedClient),
		factory: factory,
	}
}

// Add connects a server and replaces any existing client with that name.
func (p *Pool) Add(ctx context.Context, name string, cfg ServerConfig) (*ManagedClient, error) {
	kind, err := cfg.GetTransport()
	if err != nil {
		return nil, err
	}

	connect, err := p.factory(kind)
	if err != nil {
		return nil, err
	}

	cli, err := connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("transport creation failed: %w", err)
	}
	managed := newManagedClient(name, cli)

	p.mu.Lock()
	old, replaced := p.clients[name]
	p.clients[name] = managed
	p.mu.Unlock()

	if replaced {
		go old.Close()
	}
	return managed, nil
}

func (p *Pool) Del(name string) error {
	p.mu.Lock()
	cli, ok := p.clients[name]
	delete(p.clients, name)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return cli.Close()
}

func (p *Pool) Get(name string) (*ManagedClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cli, ok := p.clients[name]
	return cli, ok
}

func (p *Pool) All() map[string]*ManagedClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]*ManagedClient, len(p.clients))
	for k, v := range p.clients {
		out[k] = v
	}
	return out
}

func (p *Pool) Close() error {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*ManagedClient)
	p.mu.Unlock()

	var errs []error
	for name, cli := range clients {
		if err := cli.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
