package config

import "github.com/caarlos0/env/v11"

// Snapshot parses the App, Retention and LLM sections with defaults and
// environment overrides applied, without validating them. It backs
// `tusk init`, which has to work before the configuration is complete.
func Snapshot() ([]any, error) {
	sections := []any{
		&AppConfig{},
		&RetentionConfig{},
		&LLMConfig{},
	}
	for _, s := range sections {
		if err := env.Parse(s); err != nil {
			return nil, err
		}
	}
	return sections, nil
}
