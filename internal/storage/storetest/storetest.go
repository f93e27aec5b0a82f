// Package storetest holds the behavior every core.KVStore backend must show.
package storetest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) core.KVStore

func Run(t *testing.T, newStore Factory) {
	t.Run("get missing key", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("set then get", func(t *testing.T) { testSetGet(t, newStore(t)) })
	t.Run("range is ordered and half open", func(t *testing.T) { testRange(t, newStore(t)) })
	t.Run("clear range", func(t *testing.T) { testClearRange(t, newStore(t)) })
	t.Run("failed transaction rolls back", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("reads see own writes", func(t *testing.T) { testReadOwnWrites(t, newStore(t)) })
	t.Run("concurrent increments are serialized", func(t *testing.T) { testConcurrentIncrements(t, newStore(t)) })
}

func get(t *testing.T, s core.KVStore, key string) ([]byte, bool) {
	t.Helper()
	var (
		value []byte
		found bool
	)
	err := s.Transact(context.Background(), func(tx core.Txn) error {
		var err error
		value, found, err = tx.Get(context.Background(), []byte(key))
		return err
	})
	require.NoError(t, err)
	return value, found
}

func set(t *testing.T, s core.KVStore, pairs ...string) {
	t.Helper()
	require.Zero(t, len(pairs)%2)
	err := s.Transact(context.Background(), func(tx core.Txn) error {
		for i := 0; i < len(pairs); i += 2 {
			if err := tx.Set(context.Background(), []byte(pairs[i]), []byte(pairs[i+1])); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func scan(t *testing.T, s core.KVStore, begin, end string) []string {
	t.Helper()
	var keys []string
	err := s.Transact(context.Background(), func(tx core.Txn) error {
		keys = nil
		kvs, err := tx.Range(context.Background(), []byte(begin), []byte(end))
		if err != nil {
			return err
		}
		for _, kv := range kvs {
			keys = append(keys, string(kv.Key))
		}
		return nil
	})
	require.NoError(t, err)
	return keys
}

func testGetMissing(t *testing.T, s core.KVStore) {
	value, found := get(t, s, "missing")
	assert.False(t, found)
	assert.Nil(t, value)
}

func testSetGet(t *testing.T, s core.KVStore) {
	set(t, s, "k1", "v1")
	set(t, s, "k1", "v2")

	value, found := get(t, s, "k1")
	require.True(t, found)
	assert.Equal(t, "v2", string(value))
}

func testRange(t *testing.T, s core.KVStore) {
	set(t, s,
		"a", "1",
		"b\x00", "2",
		"b\x01", "3",
		"b\xff", "4",
		"c", "5",
	)

	assert.Equal(t, []string{"b\x00", "b\x01", "b\xff"}, scan(t, s, "b", "c"))
	assert.Equal(t, []string{"a", "b\x00"}, scan(t, s, "a", "b\x01"))
	assert.Empty(t, scan(t, s, "d", "z"))
}

func testClearRange(t *testing.T, s core.KVStore) {
	set(t, s, "m1", "1", "m2", "2", "m3", "3", "n1", "4")

	err := s.Transact(context.Background(), func(tx core.Txn) error {
		return tx.ClearRange(context.Background(), []byte("m1"), []byte("m3"))
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"m3", "n1"}, scan(t, s, "a", "z"))
}

func testRollback(t *testing.T, s core.KVStore) {
	boom := errors.New("boom")
	err := s.Transact(context.Background(), func(tx core.Txn) error {
		if err := tx.Set(context.Background(), []byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, found := get(t, s, "k")
	assert.False(t, found)
}

func testReadOwnWrites(t *testing.T, s core.KVStore) {
	err := s.Transact(context.Background(), func(tx core.Txn) error {
		ctx := context.Background()
		if err := tx.Set(ctx, []byte("r1"), []byte("x")); err != nil {
			return err
		}
		value, found, err := tx.Get(ctx, []byte("r1"))
		if err != nil {
			return err
		}
		if !found || string(value) != "x" {
			return fmt.Errorf("own write not visible: found=%v value=%q", found, value)
		}
		kvs, err := tx.Range(ctx, []byte("r"), []byte("s"))
		if err != nil {
			return err
		}
		if len(kvs) != 1 {
			return fmt.Errorf("own write not in range scan: %d pairs", len(kvs))
		}
		return nil
	})
	require.NoError(t, err)
}

func testConcurrentIncrements(t *testing.T, s core.KVStore) {
	const workers = 8
	const perWorker = 5

	cfg := retry.NewDefaultConfig()
	cfg.MaxRetries = 50
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 20 * time.Millisecond
	cfg.Retryable = func(err error) bool { return errors.Is(err, core.ErrConflict) }
	retrier := retry.NewRetrier(cfg)

	increment := func(ctx context.Context) error {
		return s.Transact(ctx, func(tx core.Txn) error {
			raw, found, err := tx.Get(ctx, []byte("counter"))
			if err != nil {
				return err
			}
			var n uint64
			if found {
				n = binary.LittleEndian.Uint64(raw)
			}
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, n+1)
			return tx.Set(ctx, []byte("counter"), buf)
		})
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				errs <- retrier.Do(context.Background(), increment)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	raw, found := get(t, s, "counter")
	require.True(t, found)
	assert.Equal(t, uint64(workers*perWorker), binary.LittleEndian.Uint64(raw))
}
