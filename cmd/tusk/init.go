package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/providers/llm"
	"github.com/sandevgo/tusk/internal/service/installer"
	"github.com/sandevgo/tusk/internal/service/ui"
	"github.com/sandevgo/tusk/pkg/env"
	"github.com/sandevgo/tusk/pkg/log"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .env with the effective configuration",
	Long: `Creates the runtime directory and writes every known setting, with
defaults and current environment overrides applied, to its .env file.

With --interactive, a terminal wizard asks for the provider, credentials,
storage backend and Telegram bot before writing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		path := envPath(runtimePath)

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		var state *installer.InstallState
		if initInteractive {
			var err error
			state, err = installer.RunWizard(ctx, installer.Options{ListModels: listModels})
			if errors.Is(err, installer.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelStyle.Render("setup cancelled, nothing written"))
				return nil
			}
			if err != nil {
				return err
			}
		}

		content, err := renderEnv(state)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(runtimePath, 0o755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.FromCtx(ctx).Info().Str("path", path).Msg("wrote configuration")
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.LabelStyle.Render("written:"), path)
		return nil
	},
}

// renderEnv marshals the effective configuration. A non-nil state from the
// wizard overrides the matching settings and enables Telegram when a token
// was given.
func renderEnv(state *installer.InstallState) (string, error) {
	sections, err := config.Snapshot()
	if err != nil {
		return "", err
	}

	var telegram *config.TelegramConfig
	if state != nil {
		var (
			app *config.AppConfig
			lc  *config.LLMConfig
		)
		for _, s := range sections {
			switch c := s.(type) {
			case *config.AppConfig:
				app = c
			case *config.LLMConfig:
				lc = c
			}
		}
		if app == nil || lc == nil {
			return "", errors.New("configuration snapshot is incomplete")
		}
		if telegram = state.Apply(app, lc); telegram != nil {
			sections = append(sections, telegram)
		}
	}

	var sb strings.Builder
	for _, s := range sections {
		content, err := env.MarshalEnv(s, env.WithZeroValues())
		if err != nil {
			return "", err
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	if telegram == nil {
		sb.WriteString("# TELEGRAM_TOKEN=\n# TELEGRAM_OWNER_ID=0\n")
	}
	return sb.String(), nil
}

func listModels(ctx context.Context, state *installer.InstallState) ([]core.Model, error) {
	provider, err := llm.NewProvider(ctx, state.LLMConfig())
	if err != nil {
		return nil, err
	}
	return provider.ListModels(ctx)
}

func envPath(runtimePath string) string {
	return filepath.Join(runtimePath, ".env")
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing .env")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "answer the setup questions in a terminal wizard")
	rootCmd.AddCommand(initCmd)
}
