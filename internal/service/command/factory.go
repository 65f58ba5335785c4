package command

import (
	"context"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/providers/mcp"
	"github.com/sandevgo/coeus/internal/service/documents"
)

type Conversation interface {
	ClearHistory()
	Reset() string
	HistoryLen() int
	SessionID() string
	Tools() []string
}

type MemoryStore interface {
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) (int, error)
}

type Library interface {
	LoadDirectory(ctx context.Context) (documents.LoadReport, error)
	Add(ctx context.Context, path string) (int, error)
	Remove(ctx context.Context, name string) (int, error)
	List(ctx context.Context) ([]core.DocumentInfo, error)
	Clear(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	Dir() string
}

type MCPServers interface {
	Status() []mcp.ServerStatus
	Reload(ctx context.Context, name string) (int, error)
}

type Settings interface {
	Model() string
	ChangeModel(ctx context.Context, model string) error
	VoiceEnabled() bool
	SetVoice(on bool) error
}

// Deps collects what the commands act on. Nil Library or MCP drops the
// related commands.
type Deps struct {
	Agent    Conversation
	Memory   MemoryStore
	Library  Library
	MCP      MCPServers
	Settings Settings
	Models   core.ModelLister
}

func NewCommands(d Deps) []core.Command {
	f := NewResponseFormatter()
	cmds := []core.Command{
		&ClearCommand{memory: d.Memory, formatter: f},
		&ResetCommand{agent: d.Agent, formatter: f},
		&CountCommand{agent: d.Agent, memory: d.Memory, library: d.Library, formatter: f},
		&SessionCommand{agent: d.Agent, formatter: f},
		&ToolsCommand{agent: d.Agent, formatter: f},
		&ModelCommand{settings: d.Settings, models: d.Models, formatter: f},
		&VoiceCommand{settings: d.Settings, on: true, formatter: f},
		&VoiceCommand{settings: d.Settings, on: false, formatter: f},
	}
	if d.Library != nil {
		cmds = append(cmds,
			&LoadCommand{library: d.Library, formatter: f},
			&DocsCommand{library: d.Library, formatter: f},
			&ClearDocsCommand{library: d.Library, formatter: f},
			&AddCommand{library: d.Library, formatter: f},
			&RemoveCommand{library: d.Library, formatter: f},
		)
	}
	if d.MCP != nil {
		cmds = append(cmds, &MCPCommand{servers: d.MCP, formatter: f})
	}
	return cmds
}
