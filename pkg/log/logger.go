package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	Debug bool
	// Format is FormatConsole or FormatJSON. Anything else falls back to console.
	Format string
	// Out defaults to os.Stdout.
	Out io.Writer
}

// NewContextWithLogger installs a logger writing through a non-blocking diode
// into ctx. The returned func flushes and closes the writer.
func NewContextWithLogger(ctx context.Context, opts Options) (context.Context, func()) {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// Size: 1000, Poll interval: 5ms
	wr := diode.NewWriter(out, 1000, 5*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "Logger Dropped %d messages\n", missed)
	})

	var sink io.Writer = wr
	if opts.Format != FormatJSON {
		sink = zerolog.ConsoleWriter{
			Out:        wr,
			TimeFormat: time.DateTime,
			PartsOrder: []string{
				zerolog.LevelFieldName,
				zerolog.TimestampFieldName,
				zerolog.MessageFieldName,
			},
		}
	}

	logger := zerolog.New(sink).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger

	return logger.WithContext(ctx), func() {
		wr.Close()
	}
}

// FromCtx returns the logger stored in ctx, or a disabled one.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

// WithStr returns a copy of ctx whose logger carries key=value on every event.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromCtx(ctx).With().Str(key, value).Logger()
	return logger.WithContext(ctx)
}
