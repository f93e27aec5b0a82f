package installer

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ErrCancelled is returned when the user quits the wizard.
var ErrCancelled = errors.New("setup cancelled")

// Step is a single screen of the wizard. Update returns nil once the step
// has stored its answer.
type Step interface {
	Init(state *InstallState) tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

// skipper is implemented by steps that only apply to some answers.
type skipper interface {
	Skip(state *InstallState) bool
}

type Options struct {
	// ListModels backs the model picker. Nil skips the picker.
	ListModels ModelLister
}

// Steps returns the wizard screens in order.
func Steps(ctx context.Context, opts Options) []Step {
	steps := []Step{
		NewProviderStep(),
		NewAPIKeyStep(),
		NewBaseURLStep(),
	}
	if opts.ListModels != nil {
		steps = append(steps, NewModelStep(ctx, opts.ListModels))
	}
	return append(steps,
		NewBackendStep(),
		NewPostgresDSNStep(),
		NewTelegramTokenStep(),
		NewTelegramOwnerStep(),
	)
}

type model struct {
	steps    []Step
	current  int
	state    *InstallState
	quitting bool
	width    int
	height   int
}

func newModel(steps []Step, state *InstallState) model {
	m := model{steps: steps, state: state}
	m.current = m.next(-1)
	return m
}

// next returns the index of the first step after i that applies.
func (m model) next(i int) int {
	for i++; i < len(m.steps); i++ {
		if s, ok := m.steps[i].(skipper); ok && s.Skip(m.state) {
			continue
		}
		break
	}
	return i
}

func (m model) done() bool {
	return m.current >= len(m.steps)
}

func (m model) Init() tea.Cmd {
	if m.done() {
		return tea.Quit
	}
	return m.steps[m.current].Init(m.state)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.done() {
		return m, tea.Quit
	}

	step, cmd := m.steps[m.current].Update(msg, m.state, m.width, m.height)
	if step != nil {
		m.steps[m.current] = step
		return m, cmd
	}

	m.current = m.next(m.current)
	if m.done() {
		return m, tea.Quit
	}
	return m, m.steps[m.current].Init(m.state)
}

func (m model) View() string {
	if m.quitting {
		return "Setup cancelled.\n"
	}
	if m.done() {
		return "Configuration complete!\n"
	}
	return titleStyle.Render("Configuring Tusk") + "\n\n" + m.steps[m.current].View(m.state)
}

// RunWizard runs the setup screens on the terminal and returns the answers.
func RunWizard(ctx context.Context, opts Options) (*InstallState, error) {
	p := tea.NewProgram(
		newModel(Steps(ctx, opts), NewInstallState()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	m := final.(model)
	if m.quitting || !m.done() {
		return nil, ErrCancelled
	}
	return m.state, nil
}
