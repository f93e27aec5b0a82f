package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tusk/pkg/log"
)

// maxRetentionBound keeps RETENTION_MAX_GAP + jitter far from overflowing.
const maxRetentionBound = 1 << 32

type RetentionConfig struct {
	MaxGap    uint64 `env:"RETENTION_MAX_GAP" envDefault:"30"`
	MaxJitter uint64 `env:"RETENTION_MAX_JITTER" envDefault:"10"`
	Reclaim   bool   `env:"RETENTION_RECLAIM" envDefault:"false"`

	TxMaxRetries int           `env:"TX_MAX_RETRIES" envDefault:"5"`
	TxTimeout    time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
}

func LoadRetentionConfig() (*RetentionConfig, error) {
	c := &RetentionConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if c.MaxGap > maxRetentionBound {
		return nil, fmt.Errorf("RETENTION_MAX_GAP must be at most %d", uint64(maxRetentionBound))
	}
	if c.MaxJitter > maxRetentionBound {
		return nil, fmt.Errorf("RETENTION_MAX_JITTER must be at most %d", uint64(maxRetentionBound))
	}
	if c.TxMaxRetries < 0 {
		return nil, errors.New("TX_MAX_RETRIES must not be negative")
	}
	if c.TxTimeout <= 0 {
		return nil, errors.New("TX_TIMEOUT must be positive")
	}
	return c, nil
}

func NewRetentionConfig(ctx context.Context) *RetentionConfig {
	c, err := LoadRetentionConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Retention config")
	}
	return c
}

func (c RetentionConfig) GetMaxGap() uint64 {
	return c.MaxGap
}

func (c RetentionConfig) GetMaxJitter() uint64 {
	return c.MaxJitter
}

func (c RetentionConfig) ShouldReclaim() bool {
	return c.Reclaim
}
