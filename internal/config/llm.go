package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tusk/pkg/log"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderCustom     = "custom"
)

type LLMConfig struct {
	Provider    string  `env:"LLM_PROVIDER" envDefault:"openai"`
	APIKey      string  `env:"OPENAI_API_KEY"`
	BaseURL     string  `env:"LLM_BASE_URL"`
	Model       string  `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	ModelFamily string  `env:"LLM_MODEL_FAMILY" envDefault:"gpt"`
	MaxTokens   int     `env:"LLM_MAX_TOKENS" envDefault:"500"`
	Temperature float32 `env:"LLM_TEMPERATURE" envDefault:"0.5"`

	// PromptTokenBudget caps the history sent along with each request.
	PromptTokenBudget int `env:"PROMPT_TOKEN_BUDGET" envDefault:"3000"`
}

func LoadLLMConfig() (*LLMConfig, error) {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderOpenRouter:
		if c.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderOllama:
	case ProviderCustom:
		if c.BaseURL == "" {
			return nil, fmt.Errorf("LLM_BASE_URL is required for provider %q", c.Provider)
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	return c, nil
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c, err := LoadLLMConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) GetProvider() string {
	return c.Provider
}

func (c LLMConfig) GetModel() string {
	return c.Model
}

func (c LLMConfig) GetModelFamily() string {
	return c.ModelFamily
}
