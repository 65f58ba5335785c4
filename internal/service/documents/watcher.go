package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sandevgo/coeus/internal/providers/rag"
	"github.com/sandevgo/coeus/pkg/log"
)

const defaultSettleDelay = 500 * time.Millisecond

// Watcher re-ingests documents when files in the library directory change.
type Watcher struct {
	library *Library
	settle  time.Duration

	watcher *fsnotify.Watcher
	timers  map[string]*time.Timer
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(library *Library) *Watcher {
	return &Watcher{
		library: library,
		settle:  defaultSettleDelay,
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.library.Dir()); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.library.Dir(), err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	log.FromCtx(ctx).Info().Str("path", w.library.Dir()).Msg("documents watcher started")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.schedule(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.FromCtx(ctx).Error().Err(err).Msg("documents watcher error")
		case <-w.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// schedule debounces bursts of events for the same file.
func (w *Watcher) schedule(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !rag.IsSupported(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[event.Name]; ok {
		t.Stop()
	}
	w.timers[event.Name] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, event.Name)
		w.mu.Unlock()
		w.apply(ctx, event)
	})
}

func (w *Watcher) apply(ctx context.Context, event fsnotify.Event) {
	logger := log.FromCtx(ctx)
	name := filepath.Base(event.Name)

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		n, err := w.library.Remove(ctx, name)
		if err != nil {
			logger.Debug().Err(err).Str("document", name).Msg("watcher remove skipped")
			return
		}
		logger.Info().Str("document", name).Int("chunks", n).Msg("document removed")
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if _, err := w.library.Ingest(ctx, event.Name); err != nil {
			logger.Warn().Err(err).Str("document", name).Msg("failed to re-ingest document")
		}
	}
}

func (w *Watcher) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.done) })

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
	clear(w.timers)

	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
