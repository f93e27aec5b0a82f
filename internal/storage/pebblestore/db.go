package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/sandevgo/tusk/internal/core"
)

// FsyncMode defines durability behavior for committed transactions.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed transaction.
	FsyncModeAlways
	// FsyncModeInterval enables group-commit by allowing Pebble to coalesce WAL
	// syncs for commits within the configured interval.
	FsyncModeInterval
	// FsyncModeNever leaves syncing to Pebble's own policies.
	FsyncModeNever
)

// Options configures the Pebble store.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

// DB is an embedded core.KVStore. Pebble has no multi-key transactions of
// its own, so each transaction is an indexed batch and transactions are
// serialized by a single writer slot. Readers inside a transaction see the
// committed state plus their own batch.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	slot      chan struct{}
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	switch opts.Fsync {
	case FsyncModeAlways:
		// Sync is requested on every commit.
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return opts.FsyncInterval }
	case FsyncModeNever:
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("%w: open pebble: %v", core.ErrUnavailable, err)
	}

	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		slot:      make(chan struct{}, 1),
	}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

func (db *DB) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	select {
	case db.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-db.slot }()

	b := db.inner.NewIndexedBatch()
	defer b.Close()

	if err := fn(&txn{b: b}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}

	syncMode := pebble.NoSync
	if db.writeSync {
		syncMode = pebble.Sync
	}
	if err := b.Commit(syncMode); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrUnavailable, err)
	}
	return nil
}

type txn struct {
	b *pebble.Batch
}

func (t *txn) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	val, closer, err := t.b.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), val...), true, nil
}

func (t *txn) Set(_ context.Context, key, value []byte) error {
	return t.b.Set(key, value, nil)
}

func (t *txn) Range(_ context.Context, begin, end []byte) ([]core.KeyValue, error) {
	iter, err := t.b.NewIter(&pebble.IterOptions{LowerBound: begin, UpperBound: end})
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	defer iter.Close()

	var kvs []core.KeyValue
	for ok := iter.First(); ok; ok = iter.Next() {
		kvs = append(kvs, core.KeyValue{
			Key:   append([]byte(nil), iter.Key()...),
			Value: append([]byte(nil), iter.Value()...),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	return kvs, nil
}

func (t *txn) ClearRange(_ context.Context, begin, end []byte) error {
	return t.b.DeleteRange(begin, end, nil)
}
