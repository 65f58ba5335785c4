package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/coeus/internal/providers/llm"
)

// InputStep asks for one free-text value. skip is checked on entry; a step
// that does not apply completes without rendering.
type InputStep struct {
	title    string
	input    textinput.Model
	optional bool
	fallback string
	skip     func(state *InstallState) bool
	prepare  func(s *InputStep, state *InstallState)
	apply    func(state *InstallState, value string)
	err      error
	ready    bool
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = placeholder
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func NewBaseURLStep() Step {
	return &InputStep{
		title: "Enter the API base URL",
		input: newInput("", false),
		skip: func(state *InstallState) bool {
			return state.Provider != "ollama" && state.Provider != "custom"
		},
		prepare: func(s *InputStep, state *InstallState) {
			if state.IsOllama() {
				s.input.Placeholder = llm.DefaultOllamaURL
				s.fallback = llm.DefaultOllamaURL
				s.optional = true
			} else {
				s.input.Placeholder = "http://localhost:8080/v1"
			}
		},
		apply: func(state *InstallState, value string) {
			state.BaseURL = value
		},
	}
}

func NewAPIKeyStep() Step {
	return &InputStep{
		title: "Enter your API key",
		input: newInput("", true),
		prepare: func(s *InputStep, state *InstallState) {
			switch state.Provider {
			case "openai":
				s.input.Placeholder = "sk-..."
			case "openrouter":
				s.input.Placeholder = "sk-or-v1-..."
			case "ollama":
				s.input.Placeholder = "only needed for hosted Ollama"
				s.input.EchoMode = textinput.EchoNormal
				s.optional = true
			default:
				s.optional = true
			}
		},
		apply: func(state *InstallState, value string) {
			state.APIKey = value
		},
	}
}

func NewTelegramTokenStep() Step {
	return &InputStep{
		title: "Enter your Telegram bot token",
		input: newInput("123456789:ABCDEF...", true),
		skip:  func(state *InstallState) bool { return !state.WantsTelegram() },
		apply: func(state *InstallState, value string) {
			state.TelegramToken = value
		},
	}
}

func NewTelegramOwnerStep() Step {
	return &InputStep{
		title: "Enter your Telegram user ID (owner)",
		input: newInput("123456789", false),
		skip:  func(state *InstallState) bool { return !state.WantsTelegram() },
		apply: func(state *InstallState, value string) {
			state.TelegramOwner = value
		},
	}
}

func (s *InputStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *InputStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		if s.skip != nil && s.skip(state) {
			return nil, nil
		}
		if s.prepare != nil {
			s.prepare(s, state)
		}
		s.ready = true
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := s.input.Value()
		if val == "" {
			val = s.fallback
		}
		if val == "" && !s.optional {
			s.err = fmt.Errorf("a value is required")
			return s, cmd
		}
		s.apply(state, val)
		return nil, nil
	}
	return s, cmd
}

func (s *InputStep) View(state *InstallState) string {
	hint := ""
	if s.optional {
		hint = " (optional, press enter to skip)"
	}
	out := fmt.Sprintf("%s%s:\n\n%s\n\n(press enter to confirm)\n", s.title, hint, s.input.View())
	if s.err != nil {
		out += "\n" + errorStyle.Render(s.err.Error()) + "\n"
	}
	return out
}
