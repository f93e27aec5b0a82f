package main

import (
	"testing"

	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/service/installer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "pebble")
	t.Setenv("RETENTION_MAX_GAP", "12")

	out, err := renderEnv(nil)
	require.NoError(t, err)

	assert.Contains(t, out, "STORE_BACKEND=pebble\n")
	assert.Contains(t, out, "RETENTION_MAX_GAP=12\n")
	assert.Contains(t, out, "RETENTION_MAX_JITTER=10\n")
	assert.Contains(t, out, "TX_TIMEOUT=5s\n")
	assert.Contains(t, out, "REQUEST_TIMEOUT=1m0s\n")
	assert.Contains(t, out, "LLM_MODEL=gpt-3.5-turbo\n")
	assert.Contains(t, out, "# TELEGRAM_TOKEN=\n")
}

func TestRenderEnv_WizardAnswers(t *testing.T) {
	state := &installer.InstallState{
		Provider:      config.ProviderOllama,
		BaseURL:       "http://ollama:11434/v1",
		Model:         "llama3",
		Backend:       config.BackendPostgres,
		PostgresDSN:   "postgres://tusk@db/tusk",
		TelegramToken: "123:abc",
		TelegramOwner: 42,
	}

	out, err := renderEnv(state)
	require.NoError(t, err)

	assert.Contains(t, out, "LLM_PROVIDER=ollama\n")
	assert.Contains(t, out, "LLM_MODEL=llama3\n")
	assert.Contains(t, out, "STORE_BACKEND=postgres\n")
	assert.Contains(t, out, "ENABLE_TELEGRAM=true\n")
	assert.Contains(t, out, "TELEGRAM_TOKEN=123:abc\n")
	assert.Contains(t, out, "TELEGRAM_OWNER_ID=42\n")
	assert.NotContains(t, out, "# TELEGRAM_TOKEN=")
}

func TestRenderEnv_WizardWithoutTelegram(t *testing.T) {
	out, err := renderEnv(&installer.InstallState{
		Provider: config.ProviderOpenAI,
		APIKey:   "sk-test",
		Backend:  config.BackendSQLite,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "OPENAI_API_KEY=sk-test\n")
	assert.Contains(t, out, "ENABLE_TELEGRAM=false\n")
	assert.Contains(t, out, "# TELEGRAM_TOKEN=\n")
}

func TestEnvPath(t *testing.T) {
	assert.Equal(t, "/data/tusk/.env", envPath("/data/tusk"))
}
