package mcp

import (
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
)

// ManagedClient is a pooled server connection. Close is idempotent.
type ManagedClient struct {
	*client.Client
	name        string
	connectedAt time.Time

	mu     sync.RWMutex
	closed bool
}

func newManagedClient(name string, cli *client.Client) *ManagedClient {
	return &ManagedClient{Client: cli, name: name, connectedAt: time.Now()}
}

func (mc *ManagedClient) Name() string { return mc.name }

func (mc *ManagedClient) ConnectedAt() time.Time { return mc.connectedAt }

func (mc *ManagedClient) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.closed {
		return nil
	}
	mc.closed = true
	if mc.Client == nil {
		return nil
	}
	return mc.Client.Close()
}

func (mc *ManagedClient) IsClosed() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.closed
}
