package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFactory(transport Transport, err error) TransportFactory {
	return func(TransportType) (Transport, error) {
		if err != nil {
			return nil, err
		}
		return transport, nil
	}
}

func nilTransport(context.Context, ServerConfig) (*client.Client, error) {
	return nil, nil
}

func failTransport(context.Context, ServerConfig) (*client.Client, error) {
	return nil, errors.New("connection failed")
}

func TestPool_Add(t *testing.T) {
	tests := []struct {
		name       string
		factory    TransportFactory
		cfg        ServerConfig
		wantErr    bool
		wantInPool bool
	}{
		{name: "stdio", factory: staticFactory(nilTransport, nil), cfg: ServerConfig{Command: "echo"}, wantInPool: true},
		{name: "http", factory: staticFactory(nilTransport, nil), cfg: ServerConfig{URL: "http://localhost:1"}, wantInPool: true},
		{name: "empty config", factory: staticFactory(nilTransport, nil), cfg: ServerConfig{}, wantErr: true},
		{name: "factory error", factory: staticFactory(nil, errors.New("unsupported")), cfg: ServerConfig{Command: "echo"}, wantErr: true},
		{name: "connect error", factory: staticFactory(failTransport, nil), cfg: ServerConfig{Command: "echo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoolWithFactory(tt.factory)

			cli, err := p.Add(context.Background(), "server", tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cli)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "server", cli.Name())
			}

			_, inPool := p.Get("server")
			assert.Equal(t, tt.wantInPool, inPool)
		})
	}
}

func TestPool_ReplaceDelClose(t *testing.T) {
	p := NewPoolWithFactory(staticFactory(nilTransport, nil))
	ctx := context.Background()

	first, err := p.Add(ctx, "a", ServerConfig{Command: "echo"})
	require.NoError(t, err)
	second, err := p.Add(ctx, "a", ServerConfig{Command: "cat"})
	require.NoError(t, err)

	assert.Eventually(t, first.IsClosed, time.Second, 5*time.Millisecond)
	got, _ := p.Get("a")
	assert.Same(t, second, got)

	_, err = p.Add(ctx, "b", ServerConfig{Command: "echo"})
	require.NoError(t, err)

	all := p.All()
	delete(all, "a")
	assert.Len(t, p.All(), 2, "All returns a copy")

	require.NoError(t, p.Del("a"))
	require.NoError(t, p.Del("missing"))
	assert.True(t, second.IsClosed())

	b, _ := p.Get("b")
	require.NoError(t, p.Close())
	assert.True(t, b.IsClosed())
	assert.Empty(t, p.All())
	require.NoError(t, p.Close())
}

func TestPool_ConcurrentAccess(t *testing.T) {
	p := NewPoolWithFactory(staticFactory(nilTransport, nil))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("s%d", i%5)
			_, _ = p.Add(ctx, name, ServerConfig{Command: "echo"})
			p.Get(name)
			p.All()
			if i%7 == 0 {
				_ = p.Del(name)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(p.All()), 5)
	require.NoError(t, p.Close())
}

func TestServerConfig_GetTransport(t *testing.T) {
	tests := []struct {
		cfg     ServerConfig
		want    TransportType
		wantErr bool
	}{
		{cfg: ServerConfig{Command: "npx"}, want: TransportStdio},
		{cfg: ServerConfig{URL: "http://x"}, want: TransportHTTP},
		{cfg: ServerConfig{URL: "http://x", Transport: TransportSSE}, want: TransportSSE},
		{cfg: ServerConfig{URL: "http://x", Command: "npx"}, want: TransportHTTP},
		{cfg: ServerConfig{}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := tt.cfg.GetTransport()
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
