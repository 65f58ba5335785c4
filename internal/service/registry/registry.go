package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

const DefaultConcurrency = 10

type entry struct {
	tool   core.Tool
	schema *gojsonschema.Schema
}

// Registry holds tool definitions by name. Names are kept in first-registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string

	concurrency int
	callTimeout time.Duration
	maxOutput   int
}

type Option func(*Registry)

func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithCallTimeout bounds each handler invocation. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.callTimeout = d
	}
}

// WithMaxOutput truncates encoded results longer than n bytes. Zero disables truncation.
func WithMaxOutput(n int) Option {
	return func(r *Registry) {
		r.maxOutput = n
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		tools:       make(map[string]entry),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds t, replacing any tool already registered under the same name.
func (r *Registry) Register(t core.Tool) error {
	if t.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if t.Handler == nil {
		return fmt.Errorf("register tool %s: nil handler", t.Name)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema()))
	if err != nil {
		return fmt.Errorf("register tool %s: schema: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[t.Name]; !ok {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = entry{tool: t, schema: schema}
	return nil
}

// MustRegister panics on error. Used for built-in tool sets with static schemas.
func (r *Registry) MustRegister(tools ...core.Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.tool, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Tools() []core.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
