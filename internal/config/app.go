package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tusk/pkg/log"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendPebble   = "pebble"
)

type AppConfig struct {
	RuntimePath string `env:"TUSK_RUNTIME_PATH" envDefault:".tusk"`

	// Storage
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	// Transport Flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool   `env:"ENABLE_CLI" envDefault:"false"`
	Port           int    `env:"WEBSITES_PORT" envDefault:"9999"`
	EntryRoute     string `env:"ENTRY_FUNC_NAME" envDefault:"/callback"`

	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"tusk"`
}

func LoadAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := LoadAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendPebble:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tusk.db")
}

func (c AppConfig) GetPebblePath() string {
	return filepath.Join(c.RuntimePath, "pebble")
}

func (c AppConfig) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

func (c AppConfig) GetListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsHTTPSelected() bool {
	return c.EnableHTTP
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
