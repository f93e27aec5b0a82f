package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/pkg/log"
	"github.com/sandevgo/tusk/pkg/retry"
)

const (
	defaultMaxRetries = 5
	defaultTxTimeout  = 5 * time.Second
)

// MetricsHook is the observation surface of the log. Optional.
type MetricsHook interface {
	ObserveTransaction(op string, err error, elapsed time.Duration)
	ObserveRetry(op string)
	ObserveTrim(advancedBy uint64)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveTransaction(string, error, time.Duration) {}
func (NoopMetrics) ObserveRetry(string)                            {}
func (NoopMetrics) ObserveTrim(uint64)                             {}

type RunnerOptions struct {
	// MaxRetries bounds how often a conflicting transaction is replayed.
	MaxRetries int
	// Timeout applies to every single transaction attempt.
	Timeout time.Duration
	// Backoff overrides the retry delays. Retryable and OnRetry are always
	// set by the runner.
	Backoff *retry.Config
	Metrics MetricsHook
}

// Runner executes transactions against a KVStore, replaying them on
// transient conflicts.
type Runner struct {
	store   core.KVStore
	backoff retry.Config
	timeout time.Duration
	metrics MetricsHook
}

func NewRunner(store core.KVStore, opts RunnerOptions) *Runner {
	backoff := *retry.NewDefaultConfig()
	if opts.Backoff != nil {
		backoff = *opts.Backoff
	}
	backoff.MaxRetries = opts.MaxRetries
	if backoff.MaxRetries <= 0 {
		backoff.MaxRetries = defaultMaxRetries
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &Runner{
		store:   store,
		backoff: backoff,
		timeout: timeout,
		metrics: metrics,
	}
}

// IsRetryable reports whether a transaction error is a transient conflict.
func IsRetryable(err error) bool {
	return errors.Is(err, core.ErrConflict)
}

// Run executes fn in a transaction. fn may run more than once and must not
// leak state between attempts. The ctx handed to fn carries the per-attempt
// timeout and must be used for every Txn call.
func (r *Runner) Run(ctx context.Context, op string, fn func(ctx context.Context, tx core.Txn) error) error {
	logger := log.FromCtx(ctx)
	start := time.Now()

	cfg := r.backoff
	cfg.Retryable = IsRetryable
	cfg.OnRetry = func(attempt int, err error) {
		r.metrics.ObserveRetry(op)
		logger.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("retrying conflicting transaction")
	}

	err := retry.NewRetrier(&cfg).Do(ctx, func(ctx context.Context) error {
		txCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := r.store.Transact(txCtx, func(tx core.Txn) error {
			return fn(txCtx, tx)
		})
		if err != nil && ctx.Err() == nil && errors.Is(txCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s timed out after %s", core.ErrUnavailable, op, r.timeout)
		}
		return err
	})

	r.metrics.ObserveTransaction(op, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
