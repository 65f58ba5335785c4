package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/registry"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAI replays Chat responses in order and records every request.
type scriptedAI struct {
	replies    []core.Message
	chatErr    error
	streamErr  error
	chunks     []string
	chatCalls  [][]core.Message
	streamMsgs [][]core.Message
	alwaysTool *core.ToolCall
}

func (s *scriptedAI) Chat(_ context.Context, msgs []core.Message, _ []core.Tool) (core.Message, error) {
	s.chatCalls = append(s.chatCalls, append([]core.Message(nil), msgs...))
	if s.chatErr != nil {
		return core.Message{}, s.chatErr
	}
	if s.alwaysTool != nil {
		return core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{*s.alwaysTool}}, nil
	}
	if len(s.replies) == 0 {
		return core.Message{Role: core.RoleAssistant, Content: "done"}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptedAI) ChatStream(_ context.Context, msgs []core.Message, onChunk func(string) error) (core.Message, error) {
	s.streamMsgs = append(s.streamMsgs, append([]core.Message(nil), msgs...))
	if s.streamErr != nil {
		return core.Message{}, s.streamErr
	}
	chunks := s.chunks
	if chunks == nil {
		chunks = []string{"ha", "ha"}
	}
	full := ""
	for _, c := range chunks {
		full += c
		if err := onChunk(c); err != nil {
			return core.Message{}, err
		}
	}
	return core.Message{Role: core.RoleAssistant, Content: full}, nil
}

type staticPrompt string

func (p staticPrompt) Build(context.Context, string) string { return string(p) }

// fakeMemory hands out stamps from a real session manager when one is set.
type fakeMemory struct {
	added    []string
	stamps   []session.Stamp
	addErr   error
	rotated  int
	touches  int
	session  string
	sessions *session.Manager
}

func (m *fakeMemory) Touch() session.Stamp {
	m.touches++
	if m.sessions != nil {
		return m.sessions.Touch()
	}
	return session.Stamp{SessionID: m.session, Ordinal: m.touches}
}

func (m *fakeMemory) Add(_ context.Context, stamp session.Stamp, user, assistant string) (int64, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.added = append(m.added, user+"|"+assistant)
	m.stamps = append(m.stamps, stamp)
	return int64(len(m.added)), nil
}

func (m *fakeMemory) Count(context.Context) (int, error) { return len(m.added), nil }

func (m *fakeMemory) SessionID() string {
	if m.sessions != nil {
		return m.sessions.ID()
	}
	return m.session
}

func (m *fakeMemory) StartNewSession() string {
	if m.sessions != nil {
		return m.sessions.StartNewSession()
	}
	m.rotated++
	m.session = fmt.Sprintf("s%d", m.rotated)
	return m.session
}

type fakeTranscript struct {
	sessions []string
	turns    [][]core.Message
}

func (f *fakeTranscript) AppendMessages(_ context.Context, sessionID string, msgs []core.Message) error {
	f.sessions = append(f.sessions, sessionID)
	f.turns = append(f.turns, msgs)
	return nil
}

func getTimeRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register(core.Tool{
		Name:        "get_time",
		Description: "current time",
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return map[string]string{"time": "12:00"}, nil
		},
	}))
	return r
}

func TestAgent_SingleToolCallMessageShape(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "get_time"}}},
		{Role: core.RoleAssistant, Content: "it is noon"},
	}}
	mem := &fakeMemory{session: "s0"}
	a := New(ai, getTimeRegistry(t), staticPrompt("sys"), mem)

	var events []Event
	out, err := a.Run(context.Background(), "what time is it?", func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)

	require.Len(t, ai.chatCalls, 2)
	second := ai.chatCalls[1]
	require.Len(t, second, 4)
	assert.Equal(t, core.RoleSystem, second[0].Role)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "what time is it?"}, second[1])
	assert.Equal(t, core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "get_time"}}}, second[2])
	assert.Equal(t, core.RoleTool, second[3].Role)
	assert.Equal(t, "get_time", second[3].ToolName)
	assert.JSONEq(t, `{"time":"12:00"}`, second[3].Content)

	require.Len(t, ai.streamMsgs, 1)
	assert.Equal(t, "haha", out.Response)
	assert.Equal(t, 1, out.Iterations)

	require.Len(t, events, 3)
	assert.Equal(t, Event{Type: EventToolCall, ToolName: "get_time"}, events[0])
	assert.Equal(t, EventContent, events[1].Type)

	assert.Equal(t, 4, a.HistoryLen())
	assert.Equal(t, []string{"what time is it?|haha"}, mem.added)
}

func TestAgent_MaxIterations(t *testing.T) {
	ai := &scriptedAI{alwaysTool: &core.ToolCall{Name: "get_time"}}
	mem := &fakeMemory{}
	a := New(ai, getTimeRegistry(t), staticPrompt("sys"), mem, WithMaxIterations(2))

	var contents []string
	out, err := a.Run(context.Background(), "loop forever", func(ev Event) {
		if ev.Type == EventContent {
			contents = append(contents, ev.Content)
		}
	})
	require.NoError(t, err)

	assert.True(t, out.CapReached)
	assert.Equal(t, 2, out.Iterations)
	assert.Len(t, ai.chatCalls, 2)
	assert.Empty(t, ai.streamMsgs)
	assert.Equal(t, []string{MaxIterationsSentinel}, contents)
	assert.Empty(t, mem.added)
	// user turn plus two call/result pairs
	assert.Equal(t, 5, a.HistoryLen())
}

func TestAgent_NoToolsStreamsDirectly(t *testing.T) {
	ai := &scriptedAI{chunks: []string{"hello"}}
	a := New(ai, registry.New(), staticPrompt("sys"), nil)

	out, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)

	assert.Empty(t, ai.chatCalls)
	assert.Len(t, ai.streamMsgs, 1)
	assert.Equal(t, "hello", out.Response)
}

func TestAgent_InferenceErrorLeavesHistory(t *testing.T) {
	tests := []struct {
		name string
		ai   *scriptedAI
	}{
		{name: "chat fails", ai: &scriptedAI{chatErr: errors.New("connection refused")}},
		{
			name: "stream fails after a tool round",
			ai: &scriptedAI{
				replies:   []core.Message{{ToolCalls: []core.ToolCall{{Name: "get_time"}}}},
				streamErr: errors.New("eof"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &fakeMemory{}
			a := New(tt.ai, getTimeRegistry(t), staticPrompt("sys"), mem)
			a.history = []core.Message{
				{Role: core.RoleUser, Content: "earlier"},
				{Role: core.RoleAssistant, Content: "reply"},
			}

			_, err := a.Run(context.Background(), "now", nil)
			require.Error(t, err)

			assert.Equal(t, 2, a.HistoryLen())
			assert.Empty(t, mem.added)
		})
	}
}

func TestAgent_MemoryFailureDoesNotFailTurn(t *testing.T) {
	mem := &fakeMemory{addErr: errors.New("disk full")}
	a := New(&scriptedAI{}, registry.New(), staticPrompt("sys"), mem)

	out, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "haha", out.Response)
	assert.Equal(t, 2, a.HistoryLen())
}

func TestAgent_HistoryWindow(t *testing.T) {
	a := New(&scriptedAI{}, registry.New(), staticPrompt("sys"), nil, WithMaxHistoryTurns(2))

	for i := 0; i < 5; i++ {
		_, err := a.Run(context.Background(), fmt.Sprintf("q%d", i), nil)
		require.NoError(t, err)
	}

	history := a.History()
	require.Len(t, history, 4)
	assert.Equal(t, "q3", history[0].Content)
	assert.Equal(t, "q4", history[2].Content)
}

func TestTruncateHistory(t *testing.T) {
	msgs := func(contents ...string) []core.Message {
		out := make([]core.Message, len(contents))
		for i, c := range contents {
			out[i] = core.Message{Role: core.RoleUser, Content: c}
		}
		return out
	}

	tests := []struct {
		name  string
		input []core.Message
		limit int
		want  []core.Message
	}{
		{name: "under limit", input: msgs("a", "b"), limit: 4, want: msgs("a", "b")},
		{name: "at limit", input: msgs("a", "b"), limit: 2, want: msgs("a", "b")},
		{name: "over limit keeps newest", input: msgs("a", "b", "c", "d", "e"), limit: 2, want: msgs("d", "e")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateHistory(tt.input, tt.limit))
		})
	}
}

func TestTrimOrphanedToolResults(t *testing.T) {
	tests := []struct {
		name     string
		input    []core.Message
		expected []core.Message
	}{
		{name: "empty", input: []core.Message{}, expected: []core.Message{}},
		{
			name: "orphaned tool result at start",
			input: []core.Message{
				{Role: core.RoleTool, Content: "result"},
				{Role: core.RoleUser, Content: "hi"},
			},
			expected: []core.Message{{Role: core.RoleUser, Content: "hi"}},
		},
		{
			name: "paired call is kept",
			input: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "x"}}},
				{Role: core.RoleTool, Content: "result"},
			},
			expected: []core.Message{
				{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{Name: "x"}}},
				{Role: core.RoleTool, Content: "result"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trimOrphanedToolResults(tt.input))
		})
	}
}

func TestAgent_ResetRotatesSession(t *testing.T) {
	mem := &fakeMemory{session: "s0"}
	a := New(&scriptedAI{}, registry.New(), staticPrompt("sys"), mem)

	_, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)

	id := a.Reset()
	assert.Equal(t, "s1", id)
	assert.Equal(t, 0, a.HistoryLen())
	assert.Equal(t, "s1", a.SessionID())
}

func TestAgent_TranscriptFollowsSessionRotation(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mgr := session.NewManager(nil, session.WithClock(func() time.Time { return now }))
	mem := &fakeMemory{sessions: mgr}
	transcript := &fakeTranscript{}
	a := New(&scriptedAI{}, registry.New(), staticPrompt("sys"), mem, WithTranscript(transcript))

	_, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = a.Run(context.Background(), "back again", nil)
	require.NoError(t, err)

	require.Len(t, mem.stamps, 2)
	assert.NotEqual(t, mem.stamps[0].SessionID, mem.stamps[1].SessionID)
	assert.Equal(t, []string{mem.stamps[0].SessionID, mem.stamps[1].SessionID}, transcript.sessions)
	assert.Equal(t, 1, mem.stamps[1].Ordinal)
	assert.Equal(t, mem.stamps[1].SessionID, a.SessionID())
}

func TestAgent_EveryTurnCountsAsActivity(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mgr := session.NewManager(nil, session.WithClock(func() time.Time { return now }))
	mem := &fakeMemory{sessions: mgr}
	transcript := &fakeTranscript{}
	ai := &scriptedAI{}
	a := New(ai, getTimeRegistry(t), staticPrompt("sys"), mem,
		WithTranscript(transcript), WithMaxIterations(1))

	_, err := a.Run(context.Background(), "hi", nil)
	require.NoError(t, err)

	// capped turn: no memory record, but still activity
	now = now.Add(25 * time.Minute)
	ai.alwaysTool = &core.ToolCall{Name: "get_time"}
	out, err := a.Run(context.Background(), "keep checking the time", nil)
	require.NoError(t, err)
	require.True(t, out.CapReached)

	// failed turn: nothing committed, but still activity
	now = now.Add(25 * time.Minute)
	ai.alwaysTool = nil
	ai.chatErr = errors.New("connection reset")
	_, err = a.Run(context.Background(), "hello?", nil)
	require.Error(t, err)

	now = now.Add(25 * time.Minute)
	ai.chatErr = nil
	_, err = a.Run(context.Background(), "still here", nil)
	require.NoError(t, err)

	require.Len(t, mem.stamps, 2)
	assert.Equal(t, mem.stamps[0].SessionID, mem.stamps[1].SessionID)
	assert.Equal(t, 4, mem.stamps[1].Ordinal)
	require.Len(t, transcript.sessions, 3)
	for _, id := range transcript.sessions {
		assert.Equal(t, mem.stamps[0].SessionID, id)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "TOOLS_PENDING", ToolsPending.String())
	assert.Equal(t, "DONE", Done.String())
}
