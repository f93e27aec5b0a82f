package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tusk/internal/service/ui"
	"github.com/spf13/cobra"
)

var sendUser string

var sendCmd = &cobra.Command{
	Use:   "send [flags] TEXT...",
	Short: "Send one message and print the reply",
	Long: `Runs a single message through the same dispatcher the transports use,
commands included, and prints the reply.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.store.Close()

		reply := a.agent.Handle(ctx, sendUser, strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderReply(reply))
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendUser, "user", "u", "cli", "identity whose conversation is used")
	rootCmd.AddCommand(sendCmd)
}
