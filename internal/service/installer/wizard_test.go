package installer

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(k string) tea.Msg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(t *testing.T, m model, msgs ...tea.Msg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

type fakeLister struct {
	models []core.Model
	errs   []error
	seen   []InstallState
}

func (f *fakeLister) list(_ context.Context, state *InstallState) ([]core.Model, error) {
	f.seen = append(f.seen, *state)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.models, nil
}

func TestWizard_OpenAIDefaults(t *testing.T) {
	lister := &fakeLister{models: []core.Model{
		{ID: "gpt-4o", Name: "GPT-4o"},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini"},
	}}
	state := NewInstallState()
	m := newModel(Steps(context.Background(), Options{ListModels: lister.list}), state)

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	// openai, then the key; the base URL question is skipped
	m, _ = send(t, m, key("enter"))
	m, cmd := send(t, m, key("sk-test"), key("enter"))
	require.IsType(t, &ModelStep{}, m.steps[m.current])
	require.NotNil(t, cmd)

	m, _ = send(t, m, cmd())
	// second model, sqlite, no telegram
	m, _ = send(t, m, key("down"), key("enter"))
	m, _ = send(t, m, key("enter"))
	m, _ = send(t, m, key("enter"))

	require.True(t, m.done())
	assert.Contains(t, m.View(), "complete")
	assert.Equal(t, &InstallState{
		Provider: config.ProviderOpenAI,
		APIKey:   "sk-test",
		Model:    "gpt-4o-mini",
		Backend:  config.BackendSQLite,
	}, state)

	require.Len(t, lister.seen, 1)
	assert.Equal(t, "sk-test", lister.seen[0].APIKey)
}

func TestWizard_CustomPostgresTelegram(t *testing.T) {
	state := NewInstallState()
	m := newModel(Steps(context.Background(), Options{}), state)

	// custom endpoint without a key
	m, _ = send(t, m, key("down"), key("down"), key("down"), key("enter"))
	m, _ = send(t, m, key("enter"))
	m, _ = send(t, m, key("https://llm.example.com/v1/"), key("enter"))
	m, _ = send(t, m, key("down"), key("down"), key("enter"))
	m, _ = send(t, m, key("postgres://u@db/tusk"), key("enter"))
	m, _ = send(t, m, key("123:abc"), key("enter"))
	m, _ = send(t, m, key("42"), key("enter"))

	require.True(t, m.done())
	assert.Equal(t, &InstallState{
		Provider:      config.ProviderCustom,
		BaseURL:       "https://llm.example.com/v1",
		Backend:       config.BackendPostgres,
		PostgresDSN:   "postgres://u@db/tusk",
		TelegramToken: "123:abc",
		TelegramOwner: 42,
	}, state)
}

func TestWizard_Cancel(t *testing.T) {
	m := newModel(Steps(context.Background(), Options{}), NewInstallState())

	m, _ = send(t, m, key("down"), key("ctrl+c"))
	assert.True(t, m.quitting)
	assert.False(t, m.done())
	assert.Equal(t, "Setup cancelled.\n", m.View())
}

func TestStep_Skip(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		state InstallState
		want  bool
	}{
		{"api key for openai", NewAPIKeyStep(), InstallState{Provider: config.ProviderOpenAI}, false},
		{"api key for ollama", NewAPIKeyStep(), InstallState{Provider: config.ProviderOllama}, true},
		{"base url for openrouter", NewBaseURLStep(), InstallState{Provider: config.ProviderOpenRouter}, true},
		{"base url for ollama", NewBaseURLStep(), InstallState{Provider: config.ProviderOllama}, false},
		{"base url for custom", NewBaseURLStep(), InstallState{Provider: config.ProviderCustom}, false},
		{"dsn for sqlite", NewPostgresDSNStep(), InstallState{Backend: config.BackendSQLite}, true},
		{"dsn for postgres", NewPostgresDSNStep(), InstallState{Backend: config.BackendPostgres}, false},
		{"owner without token", NewTelegramOwnerStep(), InstallState{}, true},
		{"owner with token", NewTelegramOwnerStep(), InstallState{TelegramToken: "t"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := tt.step.(skipper)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Skip(&tt.state))
		})
	}
}

func TestInputStep_Validation(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		state   InstallState
		input   string
		wantErr string
	}{
		{"missing openrouter key", NewAPIKeyStep(), InstallState{Provider: config.ProviderOpenRouter}, "", "API key is required"},
		{"missing custom url", NewBaseURLStep(), InstallState{Provider: config.ProviderCustom}, "", "base URL is required"},
		{"bad url scheme", NewBaseURLStep(), InstallState{Provider: config.ProviderOllama}, "ftp://host", "not an http(s) URL"},
		{"missing dsn", NewPostgresDSNStep(), InstallState{Backend: config.BackendPostgres}, "", "connection string is required"},
		{"non numeric owner", NewTelegramOwnerStep(), InstallState{TelegramToken: "t"}, "abc", "not a numeric user ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := tt.step
			if tt.input != "" {
				step, _ = step.Update(key(tt.input), &tt.state, 80, 40)
				require.NotNil(t, step)
			}
			next, _ := step.Update(key("enter"), &tt.state, 80, 40)
			require.NotNil(t, next, "step must stay open on invalid input")
			assert.Contains(t, next.View(&tt.state), tt.wantErr)
		})
	}
}

func TestInputStep_RecoversAfterError(t *testing.T) {
	state := &InstallState{Provider: config.ProviderOpenAI}
	step := NewAPIKeyStep()

	step, _ = step.Update(key("enter"), state, 80, 40)
	require.NotNil(t, step)

	step, _ = step.Update(key("sk-1"), state, 80, 40)
	require.NotNil(t, step)
	assert.NotContains(t, step.View(state), "required")

	next, _ := step.Update(key("enter"), state, 80, 40)
	assert.Nil(t, next)
	assert.Equal(t, "sk-1", state.APIKey)
}

func TestInputStep_OllamaDefaults(t *testing.T) {
	state := &InstallState{Provider: config.ProviderOllama}

	next, _ := NewBaseURLStep().Update(key("enter"), state, 80, 40)
	assert.Nil(t, next)
	assert.Empty(t, state.BaseURL)

	state.TelegramToken = "t"
	next, _ = NewTelegramOwnerStep().Update(key("enter"), state, 80, 40)
	assert.Nil(t, next)
	assert.Equal(t, int64(0), state.TelegramOwner)
}

func TestModelStep_RetryAndKeepDefault(t *testing.T) {
	lister := &fakeLister{
		models: []core.Model{{ID: "llama3", Name: "llama3"}},
		errs:   []error{errors.New("401 unauthorized")},
	}
	state := &InstallState{Provider: config.ProviderOllama}
	step := NewModelStep(context.Background(), lister.list)

	cmd := step.Init(state)
	step, _ = step.Update(cmd(), state, 80, 40)
	assert.Contains(t, step.View(state), "401 unauthorized")

	step, cmd = step.Update(key("enter"), state, 80, 40)
	require.NotNil(t, cmd)
	step, _ = step.Update(cmd(), state, 80, 40)
	assert.NotContains(t, step.View(state), "Error")

	next, _ := step.Update(key("s"), state, 80, 40)
	assert.Nil(t, next)
	assert.Empty(t, state.Model)
	assert.Len(t, lister.seen, 2)
}

func TestInstallState_Apply(t *testing.T) {
	app := &config.AppConfig{StoreBackend: config.BackendSQLite, EnableTelegram: true}
	llm := &config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-3.5-turbo"}

	tg := (&InstallState{
		Provider: config.ProviderOllama,
		BaseURL:  "http://ollama:11434/v1",
		Backend:  config.BackendPebble,
	}).Apply(app, llm)

	assert.Nil(t, tg)
	assert.False(t, app.EnableTelegram)
	assert.Equal(t, config.BackendPebble, app.StoreBackend)
	assert.Equal(t, config.ProviderOllama, llm.Provider)
	assert.Equal(t, "http://ollama:11434/v1", llm.BaseURL)
	assert.Equal(t, "gpt-3.5-turbo", llm.Model)

	tg = (&InstallState{
		Provider:      config.ProviderOpenAI,
		Model:         "gpt-4o",
		Backend:       config.BackendSQLite,
		TelegramToken: "123:abc",
		TelegramOwner: 7,
	}).Apply(app, llm)

	require.NotNil(t, tg)
	assert.True(t, app.EnableTelegram)
	assert.Equal(t, "gpt-4o", llm.Model)
	assert.Equal(t, &config.TelegramConfig{Token: "123:abc", OwnerID: 7}, tg)
}
