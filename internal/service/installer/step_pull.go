package installer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ollama/ollama/api"
	"github.com/sandevgo/coeus/internal/providers/llm"
)

// DefaultEmbeddingModel must match the RAG config default.
const DefaultEmbeddingModel = "mxbai-embed-large"

type progressMsg float64
type pullDoneMsg string

// PullEmbeddingStep pulls the embedding model through Ollama. Embeddings are
// always served by Ollama, whichever provider answers chat.
type PullEmbeddingStep struct {
	progress progress.Model
	updates  chan tea.Msg
	started  bool
	status   string
	err      error
}

func NewPullEmbeddingStep() Step {
	return &PullEmbeddingStep{
		progress: progress.New(progress.WithDefaultGradient()),
		updates:  make(chan tea.Msg, 16),
	}
}

func (s *PullEmbeddingStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *PullEmbeddingStep) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		return <-s.updates
	}
}

func (s *PullEmbeddingStep) pull(baseURL, apiKey string) {
	client, err := llm.NewOllamaClient(baseURL, apiKey)
	if err != nil {
		s.updates <- errMsg(err)
		return
	}

	req := &api.PullRequest{Model: DefaultEmbeddingModel}
	err = client.Pull(context.Background(), req, func(p api.ProgressResponse) error {
		if p.Total > 0 {
			s.updates <- progressMsg(float64(p.Completed) / float64(p.Total))
		}
		return nil
	})
	if err != nil {
		s.updates <- errMsg(fmt.Errorf("pull %s: %w", DefaultEmbeddingModel, err))
		return
	}
	s.updates <- pullDoneMsg(DefaultEmbeddingModel)
}

func (s *PullEmbeddingStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.started {
		s.started = true
		baseURL, apiKey := "", ""
		if state.IsOllama() {
			baseURL, apiKey = state.BaseURL, state.APIKey
		}
		go s.pull(baseURL, apiKey)
		return s, s.waitForActivity()
	}

	s.progress.Width = width - 10

	switch msg := msg.(type) {
	case progressMsg:
		return s, tea.Batch(s.waitForActivity(), s.progress.SetPercent(float64(msg)))

	case pullDoneMsg:
		state.EmbeddingModel = string(msg)
		return nil, nil

	case errMsg:
		s.err = msg
		return s, nil

	case progress.FrameMsg:
		m, cmd := s.progress.Update(msg)
		s.progress = m.(progress.Model)
		return s, cmd

	case tea.KeyMsg:
		// The model can be pulled later with `ollama pull`.
		if s.err != nil && msg.String() == "enter" {
			return nil, nil
		}
	}

	return s, nil
}

func (s *PullEmbeddingStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Embedding model pull failed: %v", s.err)) +
			fmt.Sprintf("\n\nRun `ollama pull %s` later.\n\n(press enter to continue, ctrl+c to quit)\n", DefaultEmbeddingModel)
	}
	return fmt.Sprintf("Pulling embedding model %s via Ollama...\n\n", DefaultEmbeddingModel) + s.progress.View() + "\n"
}
