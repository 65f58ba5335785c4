package registry

import (
	"encoding/json"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
)

type Result struct {
	Call  core.ToolCall
	Value any
	Err   error

	limit int
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Payload is the structured result handed back to the model.
func (r Result) Payload() any {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}
	}
	return r.Value
}

// Encode renders the payload as tool message content. Strings pass through as-is.
func (r Result) Encode() string {
	var out string
	switch v := r.Payload().(type) {
	case string:
		out = v
	case []byte:
		out = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			data, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("encode result: %v", err)})
		}
		out = string(data)
	}
	return truncate(out, r.limit)
}

// Batch holds one result per dispatched call, in call order.
type Batch struct {
	Results []Result
}

// ByName keys results by tool name. A name repeated in the batch keeps only its last result.
func (b Batch) ByName() map[string]Result {
	out := make(map[string]Result, len(b.Results))
	for _, res := range b.Results {
		out[res.Call.Name] = res
	}
	return out
}

func (b Batch) Failed() int {
	n := 0
	for _, res := range b.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// truncate keeps the head and tail of oversized output.
func truncate(input string, maxLen int) string {
	if maxLen <= 0 || len(input) <= maxLen {
		return input
	}

	headLen := maxLen / 4
	head := input[:headLen]
	tail := input[len(input)-(maxLen-headLen):]
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d bytes] ...\n\n%s", head, len(input)-maxLen, tail)
}
