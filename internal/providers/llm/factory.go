package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/pkg/log"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
)

// NewProvider creates the appropriate AIProvider based on configuration.
// Every supported backend speaks the OpenAI wire protocol, they differ in
// base URL and extra headers only.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	opts := Options{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts.BaseURL = firstNonEmpty(cfg.BaseURL, openAIBaseURL)
	case config.ProviderOpenRouter:
		opts.BaseURL = firstNonEmpty(cfg.BaseURL, openRouterBaseURL)
		opts.ExtraHeaders = map[string]string{
			"HTTP-Referer": core.TuskRepositoryURL,
			"X-Title":      core.TuskName,
		}
	case config.ProviderOllama:
		opts.BaseURL = firstNonEmpty(cfg.BaseURL, ollamaBaseURL)
	case config.ProviderCustom:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom llm provider requires a base url")
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}

	return NewOpenAI(opts), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
