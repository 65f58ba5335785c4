package memory

import (
	"context"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/service/session"
	"github.com/sandevgo/coeus/pkg/log"
)

// Memory is the long-term conversation store. Every completed exchange is
// embedded and filed under the session it happened in.
type Memory struct {
	repo     core.MemoryRepository
	embedder core.Embedder
	sessions Sessions
}

func NewMemory(repo core.MemoryRepository, embedder core.Embedder, sessions Sessions) *Memory {
	return &Memory{
		repo:     repo,
		embedder: embedder,
		sessions: sessions,
	}
}

func FormatExchange(user, assistant string) string {
	return fmt.Sprintf("User: %s\nAssistant: %s", user, assistant)
}

// Touch assigns a turn starting now to the current session, rotating it
// after an idle gap.
func (m *Memory) Touch() session.Stamp {
	return m.sessions.Touch()
}

// Add records one exchange under stamp and returns its id.
func (m *Memory) Add(ctx context.Context, stamp session.Stamp, user, assistant string) (int64, error) {
	content := FormatExchange(user, assistant)

	vectors, err := m.embedder.Embed(ctx, []string{content})
	if err != nil {
		return 0, fmt.Errorf("embed exchange: %w", err)
	}
	if len(vectors) == 0 {
		return 0, fmt.Errorf("embed exchange: no vectors returned")
	}

	rec := core.MemoryRecord{
		SessionID:     stamp.SessionID,
		Ordinal:       stamp.Ordinal,
		UserText:      user,
		AssistantText: assistant,
		Content:       content,
		CreatedAt:     stamp.Timestamp,
	}

	id, err := m.repo.AddMemory(ctx, rec, vectors[0])
	if err != nil {
		return 0, fmt.Errorf("store memory: %w", err)
	}

	log.FromCtx(ctx).Debug().
		Int64("id", id).
		Str("session", rec.SessionID).
		Int("ordinal", rec.Ordinal).
		Msg("memory recorded")
	return id, nil
}

// Count reports how many records exist.
func (m *Memory) Count(ctx context.Context) (int, error) {
	return m.repo.CountMemories(ctx)
}

// Search embeds query and returns up to k nearest memories.
func (m *Memory) Search(ctx context.Context, query string, k int) ([]core.Hit, error) {
	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return m.repo.SearchMemories(ctx, vectors[0], k)
}

func (m *Memory) Clear(ctx context.Context) (int, error) {
	return m.repo.DeleteAllMemories(ctx)
}

func (m *Memory) SessionID() string {
	return m.sessions.ID()
}

func (m *Memory) StartNewSession() string {
	return m.sessions.StartNewSession()
}

func (m *Memory) Reconstruct(ctx context.Context, sessionID string) ([]core.MemoryRecord, error) {
	return m.sessions.Reconstruct(ctx, sessionID)
}
