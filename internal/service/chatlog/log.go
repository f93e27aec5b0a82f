package chatlog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/keys"
	"github.com/sandevgo/tusk/pkg/log"
)

// Record is one stored exchange.
type Record struct {
	Ordinal uint64
	Text    string
}

// History is the visible part of an identity's log.
type History struct {
	Window  Window
	Records []Record
}

// Text joins the records in ordinal order, one per line.
func (h History) Text() string {
	texts := make([]string, len(h.Records))
	for i, r := range h.Records {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}

// FormatExchange renders the stored value of one user/assistant exchange.
func FormatExchange(userText, assistantText string) string {
	return fmt.Sprintf("User: %s\nAssistant: %s", userText, assistantText)
}

type Options struct {
	// Reclaim deletes records that fall below prev after a trim or clear.
	// By default they are only hidden.
	Reclaim bool
	Metrics MetricsHook
}

// Log is the per-identity conversation log. All consistency comes from the
// store transactions run by the runner; Log holds no locks.
type Log struct {
	runner  *Runner
	trimmer *Trimmer
	reclaim bool
	metrics MetricsHook
}

func New(runner *Runner, trimmer *Trimmer, opts Options) *Log {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Log{
		runner:  runner,
		trimmer: trimmer,
		reclaim: opts.Reclaim,
		metrics: metrics,
	}
}

func (l *Log) EnsureInitialized(ctx context.Context, identity string) error {
	return l.runner.Run(ctx, "ensure_initialized", func(ctx context.Context, tx core.Txn) error {
		created, err := EnsureInitialized(ctx, tx, identity)
		if err != nil {
			return err
		}
		if created {
			log.FromCtx(ctx).Debug().Str("identity", identity).Msg("initialized sequence ledger")
		}
		return nil
	})
}

// Window returns core.ErrUninitialized for unknown identities.
func (l *Log) Window(ctx context.Context, identity string) (Window, error) {
	var w Window
	err := l.runner.Run(ctx, "read_window", func(ctx context.Context, tx core.Txn) error {
		var err error
		w, err = ReadWindow(ctx, tx, identity)
		return err
	})
	return w, err
}

// Append stores one exchange and returns its ordinal.
func (l *Log) Append(ctx context.Context, identity, userText, assistantText string) (uint64, error) {
	value := []byte(FormatExchange(userText, assistantText))

	var ordinal uint64
	err := l.runner.Run(ctx, "append", func(ctx context.Context, tx core.Txn) error {
		n, err := AdvanceLatest(ctx, tx, identity)
		if err != nil {
			return err
		}
		k, err := keys.MessageKey(identity, n)
		if err != nil {
			return err
		}
		if err := tx.Set(ctx, k, value); err != nil {
			return err
		}
		ordinal = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.FromCtx(ctx).Debug().Str("identity", identity).Uint64("ordinal", ordinal).Msg("appended record")
	return ordinal, nil
}

// ReadHistory returns found=false when the identity has no ledger, which is
// different from an initialized but empty window.
func (l *Log) ReadHistory(ctx context.Context, identity string) (History, bool, error) {
	var (
		h     History
		found bool
	)
	err := l.runner.Run(ctx, "read_history", func(ctx context.Context, tx core.Txn) error {
		h, found = History{}, false

		w, err := ReadWindow(ctx, tx, identity)
		if errors.Is(err, core.ErrUninitialized) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		h.Window = w
		if w.Empty() {
			return nil
		}

		begin, end, err := keys.MessageRange(identity, w.Prev, w.Latest)
		if err != nil {
			return err
		}
		kvs, err := tx.Range(ctx, begin, end)
		if err != nil {
			return err
		}

		h.Records = make([]Record, 0, len(kvs))
		for _, kv := range kvs {
			ordinal, err := keys.DecodeMessageOrdinal(identity, kv.Key)
			if err != nil {
				return err
			}
			h.Records = append(h.Records, Record{Ordinal: ordinal, Text: string(kv.Value)})
		}
		return nil
	})
	if err != nil {
		return History{}, false, err
	}
	return h, found, nil
}

// Clear hides every visible record by moving prev up to latest. It reports
// false without touching the store when there is nothing to clear.
func (l *Log) Clear(ctx context.Context, identity string) (bool, error) {
	var cleared bool
	err := l.runner.Run(ctx, "clear", func(ctx context.Context, tx core.Txn) error {
		cleared = false

		w, err := ReadWindow(ctx, tx, identity)
		if errors.Is(err, core.ErrUninitialized) {
			return nil
		}
		if err != nil {
			return err
		}
		if w.Empty() {
			return nil
		}

		if err := AdvancePrev(ctx, tx, identity, w.Latest); err != nil {
			return err
		}
		if l.reclaim {
			if err := reclaim(ctx, tx, identity, w.Prev, w.Latest); err != nil {
				return err
			}
		}
		cleared = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return cleared, nil
}

// Trim runs the retention trimmer for identity in its own transaction.
func (l *Log) Trim(ctx context.Context, identity string) (TrimResult, error) {
	var res TrimResult
	err := l.runner.Run(ctx, "trim", func(ctx context.Context, tx core.Txn) error {
		var err error
		res, err = l.trimmer.Trim(ctx, tx, identity)
		if err != nil || !res.Trimmed || !l.reclaim {
			return err
		}
		return reclaim(ctx, tx, identity, res.Before.Prev, res.After.Prev)
	})
	if err != nil {
		return TrimResult{}, err
	}

	if res.Trimmed {
		l.metrics.ObserveTrim(res.After.Prev - res.Before.Prev)
		log.FromCtx(ctx).Debug().
			Str("identity", identity).
			Uint64("prev_before", res.Before.Prev).
			Uint64("prev_after", res.After.Prev).
			Uint64("latest", res.After.Latest).
			Msg("trimmed conversation window")
	}
	return res, nil
}

func reclaim(ctx context.Context, tx core.Txn, identity string, from, to uint64) error {
	begin, end, err := keys.MessageRange(identity, from, to)
	if err != nil {
		return err
	}
	return tx.ClearRange(ctx, begin, end)
}
