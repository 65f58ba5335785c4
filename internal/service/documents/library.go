package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/internal/providers/rag"
	"github.com/sandevgo/coeus/pkg/log"
)

const embedBatchSize = 32

var ErrDocumentNotFound = errors.New("document not found")

// Library ingests files from the documents directory into the chunk store.
// Sources are identified by file name.
type Library struct {
	repo     core.DocumentRepository
	embedder core.Embedder
	dir      string
	chunker  rag.ChunkerConfig
	now      func() time.Time

	// serializes ingestion so a source is never half-replaced
	mu sync.Mutex
}

func NewLibrary(repo core.DocumentRepository, embedder core.Embedder, dir string, chunker rag.ChunkerConfig) (*Library, error) {
	if err := chunker.Validate(); err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Library{
		repo:     repo,
		embedder: embedder,
		dir:      dir,
		chunker:  chunker,
		now:      time.Now,
	}, nil
}

func (l *Library) Dir() string { return l.dir }

type LoadReport struct {
	Loaded  []string
	Skipped []string
	Failed  map[string]error
	Chunks  int
}

// LoadDirectory ingests every supported file in the documents directory that
// is not stored yet. Per-file failures are collected, not fatal.
func (l *Library) LoadDirectory(ctx context.Context) (LoadReport, error) {
	report := LoadReport{Failed: make(map[string]error)}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return report, fmt.Errorf("read documents dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !rag.IsSupported(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := entry.Name()
		loaded, err := l.repo.HasSource(ctx, name)
		if err != nil {
			return report, fmt.Errorf("check source %s: %w", name, err)
		}
		if loaded {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		n, err := l.Ingest(ctx, filepath.Join(l.dir, name))
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("document", name).Msg("failed to load document")
			report.Failed[name] = err
			continue
		}
		report.Loaded = append(report.Loaded, name)
		report.Chunks += n
	}

	return report, nil
}

// Ingest reads, chunks and embeds path, replacing any chunks previously stored
// under the same name. It returns the number of chunks stored.
func (l *Library) Ingest(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)

	text, err := rag.ReadDocument(path)
	if err != nil {
		return 0, err
	}

	chunks, err := rag.ChunkText(text, l.chunker)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%s contains no text", name)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := l.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return 0, fmt.Errorf("embed %s: %w", name, err)
		}
		vectors = append(vectors, batch...)
	}

	loadedAt := l.now()
	records := make([]core.DocumentChunk, len(chunks))
	for i, c := range chunks {
		records[i] = core.DocumentChunk{
			Source:    name,
			Index:     c.Index,
			StartWord: c.StartWord,
			EndWord:   c.EndWord,
			Text:      c.Text,
			Tokens:    c.TokenSize,
			LoadedAt:  loadedAt,
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.repo.ReplaceSource(ctx, name, records, vectors); err != nil {
		return 0, fmt.Errorf("store %s: %w", name, err)
	}

	log.FromCtx(ctx).Info().Str("document", name).Int("chunks", len(records)).Msg("document loaded")
	return len(records), nil
}

// Add copies path into the documents directory and ingests it.
func (l *Library) Add(ctx context.Context, path string) (int, error) {
	if !rag.IsSupported(path) {
		return 0, fmt.Errorf("%w: %s", rag.ErrUnsupportedFormat, filepath.Ext(path))
	}

	src, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	dst := filepath.Join(l.dir, filepath.Base(path))
	if src != dst {
		if err := copyFile(src, dst); err != nil {
			return 0, err
		}
	}
	return l.Ingest(ctx, dst)
}

// Remove deletes a document's chunks and its copy in the documents directory.
func (l *Library) Remove(ctx context.Context, name string) (int, error) {
	name = filepath.Base(name)

	l.mu.Lock()
	n, err := l.repo.DeleteSource(ctx, name)
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	fileErr := os.Remove(filepath.Join(l.dir, name))
	if fileErr != nil && !errors.Is(fileErr, os.ErrNotExist) {
		return n, fmt.Errorf("remove file: %w", fileErr)
	}
	if n == 0 && errors.Is(fileErr, os.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	return n, nil
}

func (l *Library) List(ctx context.Context) ([]core.DocumentInfo, error) {
	docs, err := l.repo.Sources(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Clear drops every stored chunk. Files in the documents directory are kept.
func (l *Library) Clear(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.DeleteAllChunks(ctx)
}

func (l *Library) Count(ctx context.Context) (int, error) {
	return l.repo.CountChunks(ctx)
}

func (l *Library) Search(ctx context.Context, query string, k int) ([]core.Hit, error) {
	vectors, err := l.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embed query: no vectors returned")
	}
	return l.repo.SearchChunks(ctx, vectors[0], k)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
