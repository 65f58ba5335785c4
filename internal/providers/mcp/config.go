package mcp

import "fmt"

type TransportType string

const (
	TransportHTTP  TransportType = "http"
	TransportSSE   TransportType = "sse"
	TransportStdio TransportType = "stdio"
)

// Config mirrors mcp_config.json.
type Config struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

type ServerConfig struct {
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Transport TransportType     `json:"transport,omitempty"`
	Disabled  bool              `json:"disabled,omitempty"`
}

// GetTransport resolves the transport. A URL defaults to streamable HTTP
// unless "sse" is requested explicitly.
func (c *ServerConfig) GetTransport() (TransportType, error) {
	switch {
	case c.URL != "" && c.Transport == TransportSSE:
		return TransportSSE, nil
	case c.URL != "":
		return TransportHTTP, nil
	case c.Command != "":
		return TransportStdio, nil
	}
	return "", fmt.Errorf("invalid config: neither url nor command provided")
}
