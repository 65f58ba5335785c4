package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/log"
)

type Timeouts struct {
	Connect  time.Duration
	ToolList time.Duration
	ToolCall time.Duration
}

func NewDefaultTimeouts() *Timeouts {
	return &Timeouts{
		Connect:  30 * time.Second,
		ToolList: 5 * time.Second,
		ToolCall: 2 * time.Minute,
	}
}

// ToolSink receives the tools a server exposes.
type ToolSink interface {
	Register(t core.Tool) error
	Unregister(name string) bool
}

type ServerStatus struct {
	Name      string
	Transport TransportType
	Connected bool
	Disabled  bool
	Tools     []string
}

// Bridge connects configured MCP servers and mirrors their tools into a
// ToolSink as "<server>.<tool>". It follows config file changes.
type Bridge struct {
	servers  *ServerRegistry
	pool     ConnectionPool
	sink     ToolSink
	timeouts *Timeouts

	mu     sync.Mutex
	active map[string]ServerConfig
	tools  map[string][]string
}

func NewBridge(servers *ServerRegistry, pool ConnectionPool, sink ToolSink) *Bridge {
	return &Bridge{
		servers:  servers,
		pool:     pool,
		sink:     sink,
		timeouts: NewDefaultTimeouts(),
		active:   make(map[string]ServerConfig),
		tools:    make(map[string][]string),
	}
}

func (b *Bridge) Start(ctx context.Context) error {
	if err := b.servers.Load(ctx); err != nil {
		return err
	}

	for name, cfg := range b.servers.List() {
		b.mu.Lock()
		b.active[name] = cfg
		b.mu.Unlock()
		if !cfg.Disabled {
			go b.connect(ctx, name, cfg)
		}
	}

	updates, err := b.servers.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch mcp config: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-updates:
			if !ok {
				return nil
			}
			b.Sync(ctx, cfg.MCPServers)
		}
	}
}

func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	for name := range b.tools {
		b.dropTools(name)
	}
	b.mu.Unlock()
	return b.pool.Close()
}

// Sync reconciles live connections with the desired server set.
func (b *Bridge) Sync(ctx context.Context, desired map[string]ServerConfig) {
	logger := log.FromCtx(ctx)

	b.mu.Lock()
	var stale []string
	for name, current := range b.active {
		next, ok := desired[name]
		if !ok || next.Disabled || !reflect.DeepEqual(current, next) {
			stale = append(stale, name)
		}
	}
	for _, name := range stale {
		logger.Info().Str("server", name).Msg("stopping mcp server")
		b.dropTools(name)
		_ = b.pool.Del(name)
		delete(b.active, name)
	}

	var start []string
	for name, cfg := range desired {
		if _, ok := b.active[name]; ok {
			continue
		}
		b.active[name] = cfg
		if !cfg.Disabled {
			start = append(start, name)
		}
	}
	b.mu.Unlock()

	for _, name := range start {
		b.connect(ctx, name, desired[name])
	}
}

// Reload reconnects one server using its current configuration.
func (b *Bridge) Reload(ctx context.Context, name string) (int, error) {
	cfg, ok := b.servers.Get(name)
	if !ok {
		return 0, fmt.Errorf("server %s not found", name)
	}
	if err := b.connect(ctx, name, cfg); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tools[name]), nil
}

func (b *Bridge) connect(ctx context.Context, name string, cfg ServerConfig) error {
	logger := log.FromCtx(ctx).With().Str("server", name).Logger()
	logger.Info().Str("url", cfg.URL).Str("command", cfg.Command).Msg("starting mcp server")

	connectCtx, cancel := context.WithTimeout(ctx, b.timeouts.Connect)
	defer cancel()

	cli, err := b.pool.Add(connectCtx, name, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start mcp server")
		return err
	}

	listCtx, cancelList := context.WithTimeout(ctx, b.timeouts.ToolList)
	defer cancelList()

	resp, err := cli.ListTools(listCtx, mcpproto.ListToolsRequest{})
	if err != nil {
		logger.Error().Err(err).Msg("failed to list mcp tools")
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropTools(name)
	for _, t := range resp.Tools {
		tool := b.toCoreTool(name, t)
		if err := b.sink.Register(tool); err != nil {
			logger.Warn().Err(err).Str("tool", tool.Name).Msg("skipping mcp tool")
			continue
		}
		b.tools[name] = append(b.tools[name], tool.Name)
	}

	logger.Info().Int("tools", len(b.tools[name])).Msg("mcp server connected")
	return nil
}

// dropTools must be called with b.mu held.
func (b *Bridge) dropTools(server string) {
	for _, name := range b.tools[server] {
		b.sink.Unregister(name)
	}
	delete(b.tools, server)
}

func (b *Bridge) Status() []ServerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ServerStatus, 0, len(b.active))
	for name, cfg := range b.active {
		kind, _ := cfg.GetTransport()
		_, connected := b.pool.Get(name)
		out = append(out, ServerStatus{
			Name:      name,
			Transport: kind,
			Connected: connected,
			Disabled:  cfg.Disabled,
			Tools:     append([]string(nil), b.tools[name]...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (b *Bridge) toCoreTool(server string, t mcpproto.Tool) core.Tool {
	params := make(map[string]core.ToolParameter, len(t.InputSchema.Properties))
	for name, raw := range t.InputSchema.Properties {
		params[name] = toParameter(raw)
	}

	remote := t.Name
	return core.Tool{
		Name:        server + "." + t.Name,
		Description: t.Description,
		Parameters:  params,
		Required:    t.InputSchema.Required,
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return b.call(ctx, server, remote, args)
		},
	}
}

// toParameter keeps the subset of a property schema that core.ToolParameter
// can express. Union types collapse to their first non-null member.
func toParameter(raw any) core.ToolParameter {
	p := core.ToolParameter{Type: "string"}
	prop, ok := raw.(map[string]any)
	if !ok {
		return p
	}

	switch v := prop["type"].(type) {
	case string:
		p.Type = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "null" {
				p.Type = s
				break
			}
		}
	}
	if desc, ok := prop["description"].(string); ok {
		p.Description = desc
	}
	if enum, ok := prop["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				p.Enum = append(p.Enum, s)
			}
		}
	}
	if items, ok := prop["items"]; ok {
		p.Items = items
	}
	return p
}

func (b *Bridge) call(ctx context.Context, server, tool string, args json.RawMessage) (any, error) {
	cli, ok := b.pool.Get(server)
	if !ok || cli.IsClosed() {
		return nil, fmt.Errorf("server %s is not available", server)
	}

	argsMap := make(map[string]any)
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return nil, fmt.Errorf("invalid json arguments: %w", err)
		}
	}

	req := mcpproto.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = argsMap

	callCtx, cancel := context.WithTimeout(ctx, b.timeouts.ToolCall)
	defer cancel()

	res, err := cli.CallTool(callCtx, req)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, content := range res.Content {
		switch c := content.(type) {
		case mcpproto.TextContent:
			parts = append(parts, c.Text)
		case *mcpproto.TextContent:
			parts = append(parts, c.Text)
		}
	}
	output := strings.Join(parts, "\n")

	if res.IsError {
		return nil, fmt.Errorf("tool execution failed: %s", output)
	}
	return output, nil
}
