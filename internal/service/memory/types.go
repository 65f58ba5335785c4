package memory

import (
	"context"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/session"
)

// Sessions is the part of the session manager conversation memory depends on.
type Sessions interface {
	ID() string
	Touch() session.Stamp
	StartNewSession() string
	Reconstruct(ctx context.Context, sessionID string) ([]core.MemoryRecord, error)
}

var _ Sessions = (*session.Manager)(nil)

