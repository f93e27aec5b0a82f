package installer

import "github.com/sandevgo/tusk/internal/config"

// InstallState collects the wizard answers.
type InstallState struct {
	Provider string
	APIKey   string
	BaseURL  string
	// Model is empty when the user kept the configured default.
	Model string

	Backend     string
	PostgresDSN string

	// TelegramToken is empty when the bot is not wanted.
	TelegramToken string
	TelegramOwner int64
}

func NewInstallState() *InstallState {
	return &InstallState{
		Provider: config.ProviderOpenAI,
		Backend:  config.BackendSQLite,
	}
}

// LLMConfig returns the provider settings answered so far.
func (s *InstallState) LLMConfig() *config.LLMConfig {
	return &config.LLMConfig{
		Provider: s.Provider,
		APIKey:   s.APIKey,
		BaseURL:  s.BaseURL,
	}
}

// Apply copies the answers into parsed config sections. It returns the
// Telegram section when a bot token was given and nil otherwise.
func (s *InstallState) Apply(app *config.AppConfig, llm *config.LLMConfig) *config.TelegramConfig {
	llm.Provider = s.Provider
	llm.APIKey = s.APIKey
	llm.BaseURL = s.BaseURL
	if s.Model != "" {
		llm.Model = s.Model
	}

	app.StoreBackend = s.Backend
	app.PostgresDSN = s.PostgresDSN

	app.EnableTelegram = s.TelegramToken != ""
	if !app.EnableTelegram {
		return nil
	}
	return &config.TelegramConfig{Token: s.TelegramToken, OwnerID: s.TelegramOwner}
}
