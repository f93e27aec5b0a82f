package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/tusk/internal/transport/cli"
	"github.com/sandevgo/tusk/pkg/log"
	"github.com/sandevgo/tusk/pkg/srv"
	"github.com/spf13/cobra"
)

var sessionUser string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the configured transports",
	Long: `Opens the store and serves the HTTP callback, the Telegram bot and/or an
interactive terminal session (ENABLE_CLI) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting tusk")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		services, err := a.services(ctx, sessionOptions{identity: sessionUser, stop: stop})
		if err != nil {
			_ = a.store.Close()
			return err
		}

		if err := srv.Run(ctx, services, srv.DefaultShutdownTimeout); err != nil {
			return err
		}
		logger.Info().Msg("tusk has been shut down gracefully")
		return nil
	},
}

func init() {
	startCmd.Flags().StringVarP(&sessionUser, "user", "u", cli.DefaultIdentity, "conversation identity of the interactive session")
	rootCmd.AddCommand(startCmd)
}
