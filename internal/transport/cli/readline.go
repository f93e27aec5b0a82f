package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/service/ui"
	"github.com/sandevgo/tusk/pkg/log"
)

const (
	DefaultIdentity = "cli-local"
	exitCommand     = "exit"
)

type Options struct {
	// Identity is the conversation every line is appended to.
	Identity string
	// RuntimePath holds the input history file. Empty disables it.
	RuntimePath string
	// OnExit is called when the user leaves the session (exit, ^C, EOF).
	OnExit func()
}

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// ReadLine is an interactive terminal session over the dispatcher.
type ReadLine struct {
	dispatcher core.Dispatcher
	identity   string
	onExit     func()
	rl         lineReader
	out        io.Writer
}

func NewReadLine(dispatcher core.Dispatcher, opts Options) (*ReadLine, error) {
	cfg := &readline.Config{
		Prompt:          ">>> ",
		InterruptPrompt: "^C",
		EOFPrompt:       exitCommand,
	}
	if opts.RuntimePath != "" {
		if err := os.MkdirAll(opts.RuntimePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create runtime directory: %w", err)
		}
		cfg.HistoryFile = filepath.Join(opts.RuntimePath, "input_history")
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	return newSession(dispatcher, opts, rl, rl.Stdout()), nil
}

func newSession(dispatcher core.Dispatcher, opts Options, rl lineReader, out io.Writer) *ReadLine {
	identity := strings.TrimSpace(opts.Identity)
	if identity == "" {
		identity = DefaultIdentity
	}
	onExit := opts.OnExit
	if onExit == nil {
		onExit = func() {}
	}
	return &ReadLine{
		dispatcher: dispatcher,
		identity:   identity,
		onExit:     onExit,
		rl:         rl,
		out:        out,
	}
}

// Start reads lines until the user exits or ctx is done. Every non-empty
// line is dispatched as one message of the session identity.
func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("identity", r.identity).Logger()
	logger.Info().Msg("interactive session started, type 'exit' to quit")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				r.onExit()
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			r.onExit()
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == exitCommand {
			r.onExit()
			return nil
		}
		if line == "" {
			continue
		}

		reply := r.dispatcher.Handle(ctx, r.identity, line)
		fmt.Fprintln(r.out, ui.RenderReply(reply))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl == nil {
		return nil
	}
	return r.rl.Close()
}
