package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/observability"
	"github.com/sandevgo/tusk/internal/providers/llm"
	"github.com/sandevgo/tusk/internal/service/agent"
	"github.com/sandevgo/tusk/internal/service/chatlog"
	"github.com/sandevgo/tusk/internal/service/command"
	"github.com/sandevgo/tusk/internal/storage/pebblestore"
	"github.com/sandevgo/tusk/internal/storage/postgres"
	"github.com/sandevgo/tusk/internal/storage/sqlite"
	"github.com/sandevgo/tusk/internal/transport/cli"
	"github.com/sandevgo/tusk/internal/transport/httpapi"
	"github.com/sandevgo/tusk/internal/transport/telegram"
	"github.com/sandevgo/tusk/pkg/log"
	"github.com/sandevgo/tusk/pkg/srv"
)

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg     *config.AppConfig
	store   core.KVStore
	metrics *observability.Metrics
	router  *command.Router
	agent   *agent.Agent
}

func newApp(ctx context.Context) (*app, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("failed to init env: %w", err)
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	retentionCfg := config.NewRetentionConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Storage
	store, err := initStore(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(appCfg.MetricsNamespace, reg)

	// 4. Conversation log
	runner := chatlog.NewRunner(store, chatlog.RunnerOptions{
		MaxRetries: retentionCfg.TxMaxRetries,
		Timeout:    retentionCfg.TxTimeout,
		Metrics:    metrics,
	})
	trimmer := chatlog.NewTrimmer(retentionCfg.GetMaxGap(), retentionCfg.GetMaxJitter())
	conversations := chatlog.New(runner, trimmer, chatlog.Options{
		Reclaim: retentionCfg.ShouldReclaim(),
		Metrics: metrics,
	})

	// 5. AI Provider
	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	// 6. Dispatcher
	router := command.New(conversations, provider, llmCfg, metrics)
	ag := agent.NewAgent(conversations, router, provider, agent.Options{
		RequestTimeout:    appCfg.GetRequestTimeout(),
		PromptTokenBudget: llmCfg.PromptTokenBudget,
		Observer:          metrics,
	})

	return &app{
		cfg:     appCfg,
		store:   store,
		metrics: metrics,
		router:  router,
		agent:   ag,
	}, nil
}

func initStore(ctx context.Context, cfg *config.AppConfig) (core.KVStore, error) {
	logger := log.FromCtx(ctx)

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		logger.Info().Str("path", cfg.GetDatabasePath()).Msg("opening sqlite store")
		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		return sqlite.NewKVStore(db), nil
	case config.BackendPebble:
		logger.Info().Str("path", cfg.GetPebblePath()).Msg("opening pebble store")
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir: cfg.GetPebblePath(),
			Fsync:   pebblestore.FsyncModeInterval,
		})
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendPostgres:
		logger.Info().Msg("connecting to postgres store")
		store, err := postgres.NewKVStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// sessionOptions configures the interactive terminal session of `tusk start`.
type sessionOptions struct {
	identity string
	// stop ends the whole process when the user leaves the session.
	stop func()
}

// services lists the long-running parts of a. The store is closed last.
func (a *app) services(ctx context.Context, session sessionOptions) ([]srv.Service, error) {
	services := []srv.Service{srv.NewCleanup("store", a.store.Close)}

	if a.cfg.IsHTTPSelected() {
		services = append(services, httpapi.New(a.agent, httpapi.Options{
			Addr:       a.cfg.GetListenAddr(),
			EntryRoute: a.cfg.EntryRoute,
			Metrics:    a.metrics.Handler(),
		}))
	}

	if a.cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, a.agent, a.router.ListCommands())
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if a.cfg.IsCLISelected() {
		rl, err := cli.NewReadLine(a.agent, cli.Options{
			Identity:    session.identity,
			RuntimePath: a.cfg.GetRuntimePath(),
			OnExit:      session.stop,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start interactive session: %w", err)
		}
		services = append(services, rl)
	}

	if len(services) == 1 {
		return nil, errors.New("no transport enabled, set ENABLE_HTTP, ENABLE_TELEGRAM or ENABLE_CLI")
	}
	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := envPath(runtimePath)

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
