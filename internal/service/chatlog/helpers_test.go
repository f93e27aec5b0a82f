package chatlog

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/storage/sqlite"
	"github.com/sandevgo/tusk/pkg/retry"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) core.KVStore {
	t.Helper()
	db, err := sqlite.NewDB(context.Background(), filepath.Join(t.TempDir(), "tusk.db"))
	require.NoError(t, err)
	store := sqlite.NewKVStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fastBackoff() *retry.Config {
	return &retry.Config{
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func newTestRunner(store core.KVStore) *Runner {
	return NewRunner(store, RunnerOptions{MaxRetries: 20, Backoff: fastBackoff()})
}

func fixedJitter(v uint64) func(uint64) uint64 {
	return func(uint64) uint64 { return v }
}

func newTestLog(t *testing.T, opts Options) (*Log, core.KVStore) {
	t.Helper()
	store := newTestStore(t)
	trimmer := NewTrimmer(DefaultMaxGap, DefaultMaxJitter).WithJitter(fixedJitter(0))
	return New(newTestRunner(store), trimmer, opts), store
}

// faultyStore fails the first n transactions with err before delegating.
type faultyStore struct {
	core.KVStore
	err   error
	n     int32
	calls atomic.Int32
}

func (s *faultyStore) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	if s.calls.Add(1) <= s.n {
		return s.err
	}
	return s.KVStore.Transact(ctx, fn)
}

// slowStore blocks until the transaction context is done.
type slowStore struct {
	core.KVStore
}

func (s slowStore) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// blockingStore runs fn against a Txn whose calls block until the context
// they receive is done.
type blockingStore struct {
	core.KVStore
}

func (blockingStore) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	return fn(blockingTxn{})
}

type blockingTxn struct{}

func (blockingTxn) Get(ctx context.Context, _ []byte) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func (blockingTxn) Set(ctx context.Context, _, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingTxn) Range(ctx context.Context, _, _ []byte) ([]core.KeyValue, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingTxn) ClearRange(ctx context.Context, _, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}
