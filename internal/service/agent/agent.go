package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/registry"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/sandevgo/coeus/pkg/log"
)

const (
	DefaultMaxIterations   = 10
	DefaultMaxHistoryTurns = 10

	MaxIterationsSentinel = "[Max tool iterations reached]"
)

type Tools interface {
	Tools() []core.Tool
	DispatchBatch(ctx context.Context, calls []core.ToolCall) registry.Batch
}

type ContextBuilder interface {
	Build(ctx context.Context, userMessage string) string
}

// Memory files finished exchanges. Touch is called once per turn, before
// inference, so every attempted turn counts as session activity.
type Memory interface {
	Touch() session.Stamp
	Add(ctx context.Context, stamp session.Stamp, user, assistant string) (int64, error)
	Count(ctx context.Context) (int, error)
	SessionID() string
	StartNewSession() string
}

// Transcript persists committed turn messages.
type Transcript interface {
	AppendMessages(ctx context.Context, sessionID string, msgs []core.Message) error
}

// Agent runs one conversation. Turns are serialised; the rolling history is
// only touched between loop iterations by the goroutine holding mu.
type Agent struct {
	ai         core.AIProvider
	tools      Tools
	assembler  ContextBuilder
	memory     Memory
	transcript Transcript

	maxIterations   int
	maxHistoryTurns int

	mu      sync.Mutex
	history []core.Message
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func WithMaxHistoryTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxHistoryTurns = n
		}
	}
}

func WithTranscript(t Transcript) Option {
	return func(a *Agent) {
		a.transcript = t
	}
}

func New(ai core.AIProvider, tools Tools, assembler ContextBuilder, memory Memory, opts ...Option) *Agent {
	a := &Agent{
		ai:              ai,
		tools:           tools,
		assembler:       assembler,
		memory:          memory,
		maxIterations:   DefaultMaxIterations,
		maxHistoryTurns: DefaultMaxHistoryTurns,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run processes one user message. Nothing reaches the history unless the turn
// finishes or hits the iteration cap; an inference failure leaves it as it was.
func (a *Agent) Run(ctx context.Context, input string, onEvent EventHandler) (Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := log.FromCtx(ctx)
	emit := func(ev Event) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	var stamp session.Stamp
	if a.memory != nil {
		stamp = a.memory.Touch()
		l := logger.With().Str("session", stamp.SessionID).Int("ordinal", stamp.Ordinal).Logger()
		logger = &l
	}

	system := a.assembler.Build(ctx, input)
	tools := a.tools.Tools()
	staged := []core.Message{{Role: core.RoleUser, Content: input}}

	var (
		out     Outcome
		pending []core.ToolCall
		state   = AwaitingModel
	)

	for state != Done {
		logger.Debug().Str("state", state.String()).Int("iteration", out.Iterations).Msg("agent step")

		switch state {
		case AwaitingModel:
			if len(tools) == 0 {
				state = StreamingFinal
				continue
			}

			resp, err := a.ai.Chat(ctx, a.buildMessages(system, staged), tools)
			if err != nil {
				return Outcome{}, fmt.Errorf("inference: %w", err)
			}
			if len(resp.ToolCalls) == 0 {
				state = StreamingFinal
				continue
			}

			pending = resp.ToolCalls
			for _, call := range pending {
				logger.Info().Str("tool", call.Name).Msg("model requested tool")
				emit(Event{Type: EventToolCall, ToolName: call.Name, Args: call.Arguments})
			}
			state = ToolsPending

		case ToolsPending:
			batch := a.tools.DispatchBatch(ctx, pending)
			if err := ctx.Err(); err != nil {
				return Outcome{}, fmt.Errorf("tool dispatch: %w", err)
			}

			for _, res := range batch.Results {
				staged = append(staged,
					core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{res.Call}},
					core.Message{Role: core.RoleTool, ToolName: res.Call.Name, Content: res.Encode()},
				)
			}
			out.ToolCalls += len(batch.Results)
			out.Iterations++
			pending = nil

			if out.Iterations >= a.maxIterations {
				state = MaxIterReached
			} else {
				state = AwaitingModel
			}

		case StreamingFinal:
			var sb strings.Builder
			final, err := a.ai.ChatStream(ctx, a.buildMessages(system, staged), func(chunk string) error {
				sb.WriteString(chunk)
				emit(Event{Type: EventContent, Content: chunk})
				return nil
			})
			if err != nil {
				return Outcome{}, fmt.Errorf("inference stream: %w", err)
			}

			text := sb.String()
			if text == "" && final.Content != "" {
				text = final.Content
				emit(Event{Type: EventContent, Content: text})
			}

			staged = append(staged, core.Message{Role: core.RoleAssistant, Content: text})
			a.commit(ctx, stamp, staged)
			a.remember(ctx, stamp, input, text)

			out.Response = text
			state = Done

		case MaxIterReached:
			logger.Warn().Int("iterations", out.Iterations).Msg("tool iteration cap reached")
			emit(Event{Type: EventContent, Content: MaxIterationsSentinel})
			a.commit(ctx, stamp, staged)

			out.Response = MaxIterationsSentinel
			out.CapReached = true
			state = Done
		}
	}

	return out, nil
}

// buildMessages must be called with mu held.
func (a *Agent) buildMessages(system string, staged []core.Message) []core.Message {
	window := trimOrphanedToolResults(a.history)

	msgs := make([]core.Message, 0, 1+len(window)+len(staged))
	msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: system})
	msgs = append(msgs, window...)
	msgs = append(msgs, staged...)
	return msgs
}

// commit must be called with mu held.
func (a *Agent) commit(ctx context.Context, stamp session.Stamp, staged []core.Message) {
	a.history = truncateHistory(append(a.history, staged...), 2*a.maxHistoryTurns)

	if a.transcript == nil {
		return
	}
	if err := a.transcript.AppendMessages(ctx, stamp.SessionID, staged); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist transcript")
	}
}

func (a *Agent) remember(ctx context.Context, stamp session.Stamp, user, assistant string) {
	if a.memory == nil {
		return
	}
	if _, err := a.memory.Add(ctx, stamp, user, assistant); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to record memory")
	}
}

func (a *Agent) Tools() []string {
	tools := a.tools.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

func (a *Agent) HistoryLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

func (a *Agent) History() []core.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.Message(nil), a.history...)
}

func (a *Agent) SessionID() string {
	if a.memory == nil {
		return ""
	}
	return a.memory.SessionID()
}

func (a *Agent) MemoryCount(ctx context.Context) (int, error) {
	if a.memory == nil {
		return 0, nil
	}
	return a.memory.Count(ctx)
}

// ClearHistory drops the rolling history but keeps the session.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// Reset drops the rolling history and starts a new session.
func (a *Agent) Reset() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	if a.memory == nil {
		return ""
	}
	return a.memory.StartNewSession()
}
