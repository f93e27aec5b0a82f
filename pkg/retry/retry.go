package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

type Operation = func(ctx context.Context) error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
	// Retryable reports whether err may be retried. Nil retries every error.
	Retryable func(err error) bool
	// OnRetry is called before sleeping ahead of attempt number `attempt` (1-based).
	OnRetry func(attempt int, err error)
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2.15,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        10 * time.Millisecond,
	}
}

type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{
		config: config,
	}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

// Do runs op until it succeeds, returns a non-retryable error, the retry
// budget is spent or ctx is done. The last operation error is returned as is.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	delay := r.config.InitialDelay

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		if attempt == r.config.MaxRetries || !r.retryable(err) {
			return err
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err)
		}

		var jitter time.Duration
		if r.config.Jitter > 0 {
			jitter = rand.N(r.config.Jitter)
		}
		wait := min(delay, r.config.MaxDelay) + jitter

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = min(time.Duration(float64(delay)*r.config.BackoffFactor), r.config.MaxDelay)
	}
	return err
}

func (r *Retrier) retryable(err error) bool {
	if r.config.Retryable == nil {
		return true
	}
	return r.config.Retryable(err)
}
