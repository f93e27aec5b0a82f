package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/tusk/internal/core"
)

const listModelsTimeout = 30 * time.Second

// ModelLister fetches the models of the provider answered so far.
type ModelLister func(ctx context.Context, state *InstallState) ([]core.Model, error)

type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

type modelsMsg []list.Item
type modelsErrMsg struct{ err error }

// ModelStep lets the user pick LLM_MODEL from the provider's model list.
// "s" keeps the configured default.
type ModelStep struct {
	ctx     context.Context
	fetch   ModelLister
	list    list.Model
	loading bool
	err     error
}

func NewModelStep(ctx context.Context, fetch ModelLister) Step {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select the chat model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{ctx: ctx, fetch: fetch, list: l}
}

func (s *ModelStep) Init(state *InstallState) tea.Cmd {
	s.loading = true
	s.err = nil
	snapshot := *state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, listModelsTimeout)
		defer cancel()

		models, err := s.fetch(ctx, &snapshot)
		if err != nil {
			return modelsErrMsg{err: err}
		}
		items := make([]list.Item, 0, len(models))
		for _, m := range models {
			items = append(items, item{id: m.ID, title: m.Name, desc: fmt.Sprintf("ID: %s", m.ID)})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	s.list.SetSize(width, max(height-4, 0))

	switch msg := msg.(type) {
	case modelsMsg:
		s.loading = false
		return s, s.list.SetItems(msg)
	case modelsErrMsg:
		s.loading = false
		s.err = msg.err
		return s, nil
	case tea.KeyMsg:
		filtering := s.list.FilterState() == list.Filtering
		switch {
		case msg.String() == "s" && !filtering:
			return nil, nil
		case s.loading:
			return s, nil
		case s.err != nil:
			if msg.String() == "enter" {
				return s, s.Init(state)
			}
			return s, nil
		case msg.String() == "enter" && !filtering:
			if i, ok := s.list.SelectedItem().(item); ok {
				state.Model = i.id
			}
			return nil, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(*InstallState) string {
	switch {
	case s.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck your API key and base URL.\n\n(press enter to retry, s to keep the default, ctrl+c to quit)\n"
	case s.loading:
		return "Fetching models...\n"
	}
	return s.list.View() + "\n(press enter to select, s to keep the default)\n"
}
