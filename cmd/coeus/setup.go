package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sandevgo/coeus/internal/config"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/providers/llm"
	"github.com/sandevgo/coeus/internal/providers/mcp"
	"github.com/sandevgo/coeus/internal/providers/rag"
	"github.com/sandevgo/coeus/internal/providers/tools"
	"github.com/sandevgo/coeus/internal/service/agent"
	"github.com/sandevgo/coeus/internal/service/command"
	"github.com/sandevgo/coeus/internal/service/documents"
	"github.com/sandevgo/coeus/internal/service/memory"
	"github.com/sandevgo/coeus/internal/service/prompt"
	"github.com/sandevgo/coeus/internal/service/registry"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/sandevgo/coeus/internal/service/state"
	"github.com/sandevgo/coeus/internal/service/voice"
	"github.com/sandevgo/coeus/internal/storage/sqlite"
	"github.com/sandevgo/coeus/internal/transport/cli"
	"github.com/sandevgo/coeus/internal/transport/telegram"
	"github.com/sandevgo/coeus/pkg/log"
	"github.com/sandevgo/coeus/pkg/srv"
)

// stores is the storage half of the app, shared by start and the offline
// subcommands.
type stores struct {
	app *config.AppConfig
	rag *config.RAGConfig
	llm *config.LLMConfig

	db       *sql.DB
	memories *sqlite.MemoryRepo
	messages *sqlite.MessagesRepo
	embedder *rag.Embedder
	library  *documents.Library
	sessions *session.Manager
	memory   *memory.Memory
}

func openStores(ctx context.Context) (*stores, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	s := &stores{
		app: config.NewAppConfig(ctx),
		rag: config.NewRAGConfig(ctx),
		llm: config.NewLLMConfig(ctx),
	}

	db, err := sqlite.NewDB(ctx, s.app.GetDatabasePath(), s.rag.GetEmbeddingDim())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.db = db
	s.memories = sqlite.NewMemoryRepo(db)
	s.messages = sqlite.NewMessagesRepo(db)

	client, err := llm.NewOllamaClient(embeddingURL(s.llm, s.rag), embeddingKey(s.llm, s.rag))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	s.embedder = rag.NewEmbedder(client, s.rag.GetEmbeddingModel(), s.rag.GetEmbeddingDim())

	s.library, err = documents.NewLibrary(sqlite.NewDocumentRepo(db), s.embedder, s.app.GetDocumentsPath(), s.rag.Chunker())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize document library: %w", err)
	}

	s.sessions = session.NewManager(s.memories, session.WithTimeout(s.app.SessionTimeout))
	s.memory = memory.NewMemory(s.memories, s.embedder, s.sessions)
	return s, nil
}

func (s *stores) Close() error {
	return s.db.Close()
}

// closeOnError releases c when the surrounding constructor failed.
func closeOnError(ctx context.Context, errp *error, c io.Closer) {
	if *errp == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to close storage")
	}
}

// embeddingURL reuses the chat endpoint when chat is served by Ollama too.
func embeddingURL(l *config.LLMConfig, r *config.RAGConfig) string {
	if r.EmbeddingURL != "" {
		return r.EmbeddingURL
	}
	if l.GetProvider() == "ollama" {
		return l.GetBaseURL()
	}
	return llm.DefaultOllamaURL
}

func embeddingKey(l *config.LLMConfig, r *config.RAGConfig) string {
	if r.EmbeddingURL == "" && l.GetProvider() == "ollama" {
		return l.GetAPIKey()
	}
	return ""
}

// NewServices wires the agent and everything around it. stop ends the
// process when the interactive CLI exits.
func NewServices(ctx context.Context, stop context.CancelFunc) (_ []srv.Service, err error) {
	logger := log.FromCtx(ctx)

	st, err := openStores(ctx)
	if err != nil {
		return nil, err
	}
	defer closeOnError(ctx, &err, st)
	var services []srv.Service

	provider, err := llm.NewDynamicProvider(ctx, st.llm)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	// Tools
	reg := registry.New(
		registry.WithConcurrency(st.app.ToolConcurrency),
		registry.WithCallTimeout(st.app.ToolTimeout),
	)
	builtin, err := builtinTools(st.app)
	if err != nil {
		return nil, err
	}
	for _, t := range builtin {
		if err := reg.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", t.Name, err)
		}
	}
	logger.Info().Int("tools", reg.Len()).Msg("registered builtin tools")

	servers := mcp.NewServerRegistry(mcp.NewFileStorage(st.app.GetMCPConfigPath()))
	bridge := mcp.NewBridge(servers, mcp.NewPool(), reg)
	services = append(services, bridge)

	// Documents
	if n, err := st.library.Count(ctx); err == nil && n == 0 {
		report, err := st.library.LoadDirectory(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("document auto-load failed")
		} else if len(report.Loaded) > 0 {
			logger.Info().Strs("documents", report.Loaded).Int("chunks", report.Chunks).Msg("auto-loaded documents")
		}
	}
	if st.rag.WatchDocuments {
		services = append(services, documents.NewWatcher(st.library))
	}

	// Voice
	voiceCfg := config.NewVoiceConfig(ctx)
	var speaker voice.Speaker
	if voiceCfg.Command != "" {
		speaker = voice.CommandSpeaker{Command: voiceCfg.Command, Args: voiceCfg.Args}
	}
	tts := voice.New(speaker, voiceCfg.Enabled)
	services = append(services, tts)

	// Agent
	assembler := prompt.NewAssembler(prompt.LoadPersona(st.app), st.library, st.memory).WithTopK(st.rag.TopK)
	ag := agent.New(provider, reg, assembler, st.memory,
		agent.WithMaxIterations(st.app.MaxIterations),
		agent.WithMaxHistoryTurns(st.app.MaxHistoryTurns),
		agent.WithTranscript(st.messages),
	)

	router := command.New(command.NewCommands(command.Deps{
		Agent:    ag,
		Memory:   st.memory,
		Library:  st.library,
		MCP:      bridge,
		Settings: state.NewGlobalState(provider, tts),
		Models:   provider,
	}))

	transports, err := initTransports(ctx, st.app, ag, router, tts, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transports: %w", err)
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("no transport enabled, set COEUS_ENABLE_CLI or COEUS_ENABLE_TELEGRAM")
	}
	services = append(services, transports...)
	// Shutdown runs in order, so storage is released last.
	return append(services, srv.OnShutdown(st.Close)), nil
}

func builtinTools(cfg *config.AppConfig) ([]core.Tool, error) {
	fs, err := tools.NewFilesystem(cfg.GetWorkspacePath())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare workspace: %w", err)
	}
	fetch := tools.NewFetch()

	var shell tools.Provider
	if cfg.EnableShell {
		shell = tools.NewShell(cfg.GetWorkspacePath())
	}

	return tools.Collect(
		tools.NewCalculator(),
		tools.NewClock(time.Now),
		tools.NewJSONParser(),
		fs,
		fetch,
		tools.NewWebSearch(tools.DefaultSearchURL, fetch),
		shell,
	), nil
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	ag *agent.Agent,
	router *command.Router,
	tts *voice.Voice,
	stop context.CancelFunc,
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableTelegram {
		bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), ag, router)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(ag, router, tts, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, srv.StopOnReturn(rl, stop))
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
