package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sandevgo/coeus/internal/core"
)

const DefaultTimeout = 30 * time.Minute

const (
	idTimeLayout = "20060102T150405Z"
	idAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLen  = 8
)

type Decision int

const (
	Continue Decision = iota
	Rotate
)

func (d Decision) String() string {
	if d == Rotate {
		return "rotate"
	}
	return "continue"
}

// Decide reports whether a turn at now belongs to a new session.
// A zero last means no turn has been recorded yet.
func Decide(last, now time.Time, timeout time.Duration) Decision {
	if last.IsZero() {
		return Continue
	}
	if now.Sub(last) > timeout {
		return Rotate
	}
	return Continue
}

// Stamp identifies where a recorded turn falls.
type Stamp struct {
	SessionID string
	Ordinal   int
	Timestamp time.Time
}

type Store interface {
	ListBySession(ctx context.Context, sessionID string) ([]core.MemoryRecord, error)
}

type Manager struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	lastTurn  time.Time
	ordinal   int

	timeout time.Duration
	now     func() time.Time
	store   Store
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		timeout: DefaultTimeout,
		now:     time.Now,
		store:   store,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.rotate(m.now())
	return m
}

func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Manager) CreatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdAt
}

// RecordTurn assigns a turn happening at now to a session, rotating first if
// the gap since the previous turn exceeds the timeout.
func (m *Manager) RecordTurn(now time.Time) Stamp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if Decide(m.lastTurn, now, m.timeout) == Rotate {
		m.rotate(now)
	}
	m.lastTurn = now
	m.ordinal++

	return Stamp{SessionID: m.id, Ordinal: m.ordinal, Timestamp: now}
}

// Touch records a turn at the manager's clock.
func (m *Manager) Touch() Stamp {
	return m.RecordTurn(m.now())
}

func (m *Manager) StartNewSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotate(m.now())
	return m.id
}

// Reconstruct returns the session's records ordered by (timestamp, ordinal).
// An unknown session yields an empty slice.
func (m *Manager) Reconstruct(ctx context.Context, sessionID string) ([]core.MemoryRecord, error) {
	records, err := m.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session %s: %w", sessionID, err)
	}
	if records == nil {
		return []core.MemoryRecord{}, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Ordinal < b.Ordinal
	})
	return records, nil
}

// rotate must be called with mu held.
func (m *Manager) rotate(now time.Time) {
	m.id = NewID(now)
	m.createdAt = now
	m.lastTurn = time.Time{}
	m.ordinal = 0
}

// NewID builds a session id from the UTC time and a random suffix.
func NewID(now time.Time) string {
	suffix, err := gonanoid.Generate(idAlphabet, idSuffixLen)
	if err != nil {
		suffix = fmt.Sprintf("%08x", now.UnixNano()&0xffffffff)
	}
	return now.UTC().Format(idTimeLayout) + "-" + suffix
}
