package agent

import "github.com/sandevgo/coeus/internal/core"

// truncateHistory keeps the newest limit messages in their original order.
func truncateHistory(history []core.Message, limit int) []core.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	out := make([]core.Message, limit)
	copy(out, history[len(history)-limit:])
	return out
}

// trimOrphanedToolResults drops tool messages at the head of the window whose
// assistant call was cut off by truncation. Providers reject them.
func trimOrphanedToolResults(history []core.Message) []core.Message {
	i := 0
	for i < len(history) && history[i].Role == core.RoleTool {
		i++
	}
	return history[i:]
}
