package agent

import (
	"encoding/json"
	"fmt"
)

type State int

const (
	AwaitingModel State = iota
	ToolsPending
	StreamingFinal
	MaxIterReached
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingModel:
		return "AWAITING_MODEL"
	case ToolsPending:
		return "TOOLS_PENDING"
	case StreamingFinal:
		return "STREAMING_FINAL"
	case MaxIterReached:
		return "MAX_ITER_REACHED"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type EventType string

const (
	EventToolCall EventType = "tool_call"
	EventContent  EventType = "content"
)

// Event is one observable step of a turn.
type Event struct {
	Type     EventType       `json:"type"`
	ToolName string          `json:"tool_call,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Content  string          `json:"content,omitempty"`
}

type EventHandler func(Event)

// Outcome summarises a finished turn.
type Outcome struct {
	Response   string
	Iterations int
	ToolCalls  int
	CapReached bool
}
