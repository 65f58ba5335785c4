package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/log"
)

const (
	DefaultTopK = 5

	documentsHeader = "Relevant document excerpts:"
	memoriesHeader  = "Relevant past conversations:"
)

// Retriever is a searchable store of ranked text records.
type Retriever interface {
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, k int) ([]core.Hit, error)
}

// Compose builds the system prompt: persona, then document excerpts, then past
// conversations. Blocks with no hits are left out.
func Compose(persona string, docHits, memoryHits []core.Hit) string {
	var sb strings.Builder
	sb.WriteString(persona)

	if block := formatBlock(documentsHeader, docHits); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}
	if block := formatBlock(memoriesHeader, memoryHits); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}
	return sb.String()
}

func formatBlock(header string, hits []core.Hit) string {
	if len(hits) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for i, hit := range hits {
		if hit.Label != "" {
			fmt.Fprintf(&sb, "\n[%d] (%s)\n%s\n", i+1, hit.Label, hit.Content)
		} else {
			fmt.Fprintf(&sb, "\n[%d]\n%s\n", i+1, hit.Content)
		}
	}
	return sb.String()
}

type Assembler struct {
	persona   string
	documents Retriever
	memories  Retriever
	topK      int
}

// NewAssembler takes either retriever as nil when that store is not configured.
func NewAssembler(persona string, documents, memories Retriever) *Assembler {
	return &Assembler{
		persona:   persona,
		documents: documents,
		memories:  memories,
		topK:      DefaultTopK,
	}
}

func (a *Assembler) WithTopK(k int) *Assembler {
	if k > 0 {
		a.topK = k
	}
	return a
}

func (a *Assembler) Persona() string {
	return a.persona
}

// Build assembles the system prompt for userMessage. Retrieval is best-effort:
// a failing store only drops its block.
func (a *Assembler) Build(ctx context.Context, userMessage string) string {
	docHits := a.retrieve(ctx, "documents", a.documents, userMessage)
	memHits := a.retrieve(ctx, "memories", a.memories, userMessage)
	return Compose(a.persona, docHits, memHits)
}

func (a *Assembler) retrieve(ctx context.Context, name string, store Retriever, query string) []core.Hit {
	if store == nil {
		return nil
	}
	logger := log.FromCtx(ctx)

	n, err := store.Count(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("store", name).Msg("retrieval store unavailable")
		return nil
	}
	if n == 0 {
		return nil
	}

	hits, err := store.Search(ctx, query, a.topK)
	if err != nil {
		logger.Warn().Err(err).Str("store", name).Msg("retrieval search failed")
		return nil
	}

	logger.Debug().Str("store", name).Int("hits", len(hits)).Msg("context retrieved")
	return hits
}
