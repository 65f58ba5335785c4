package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ChoiceStep is a single-select menu. apply stores the selection.
type ChoiceStep struct {
	title   string
	choices []string
	cursor  int
	apply   func(state *InstallState, choice string)
}

func NewProviderStep() Step {
	return &ChoiceStep{
		title:   "Select your LLM provider:",
		choices: []string{"Ollama", "OpenAI", "OpenRouter", "Custom"},
		apply: func(state *InstallState, choice string) {
			state.Provider = strings.ToLower(choice)
		},
	}
}

func NewChannelStep() Step {
	return &ChoiceStep{
		title:   "Where do you want to chat?",
		choices: []string{ChannelCLI, ChannelTelegram, ChannelBoth},
		apply: func(state *InstallState, choice string) {
			state.Channel = choice
		},
	}
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.choices)-1 {
			s.cursor++
		}
	case "enter":
		s.apply(state, s.choices[s.cursor])
		return nil, nil
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, choice := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", choice)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", choice)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
