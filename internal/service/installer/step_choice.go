package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/tusk/internal/config"
)

type choice struct {
	value string
	label string
}

// ChoiceStep picks one value from a fixed list with the arrow keys.
type ChoiceStep struct {
	title   string
	choices []choice
	cursor  int
	assign  func(state *InstallState, value string)
}

func NewProviderStep() Step {
	return &ChoiceStep{
		title: "Select your AI provider:",
		choices: []choice{
			{config.ProviderOpenAI, "OpenAI"},
			{config.ProviderOpenRouter, "OpenRouter"},
			{config.ProviderOllama, "Ollama"},
			{config.ProviderCustom, "Custom OpenAI-compatible endpoint"},
		},
		assign: func(state *InstallState, v string) { state.Provider = v },
	}
}

func NewBackendStep() Step {
	return &ChoiceStep{
		title: "Select the conversation store:",
		choices: []choice{
			{config.BackendSQLite, "SQLite (local file)"},
			{config.BackendPebble, "Pebble (embedded key-value store)"},
			{config.BackendPostgres, "PostgreSQL"},
		},
		assign: func(state *InstallState, v string) { state.Backend = v },
	}
}

func (s *ChoiceStep) Init(*InstallState) tea.Cmd {
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
		s.assign(state, s.choices[s.cursor].value)
		return nil, nil
	}
	return s, nil
}

func (s *ChoiceStep) View(*InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, c := range s.choices {
		if i == s.cursor {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", c.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", c.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
