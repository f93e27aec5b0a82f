package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/sandevgo/tusk/internal/core"
)

// KVStore is a core.KVStore on top of a single SQLite table. BLOB keys
// compare with memcmp, which gives the lexicographic order range scans need.
type KVStore struct {
	db *sql.DB
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&txn{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(fmt.Errorf("get: %w", err))
	}
	return value, true, nil
}

func (t *txn) Set(ctx context.Context, key, value []byte) error {
	query := `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := t.tx.ExecContext(ctx, query, key, value); err != nil {
		return classify(fmt.Errorf("set: %w", err))
	}
	return nil
}

func (t *txn) Range(ctx context.Context, begin, end []byte) ([]core.KeyValue, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key`, begin, end)
	if err != nil {
		return nil, classify(fmt.Errorf("range: %w", err))
	}
	defer rows.Close()

	var kvs []core.KeyValue
	for rows.Next() {
		var kv core.KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		kvs = append(kvs, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("range: %w", err))
	}
	return kvs, nil
}

func (t *txn) ClearRange(ctx context.Context, begin, end []byte) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM kv WHERE key >= ? AND key < ?`, begin, end); err != nil {
		return classify(fmt.Errorf("clear range: %w", err))
	}
	return nil
}

// classify maps lock contention onto core.ErrConflict so the runner retries it.
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
		}
	}
	return err
}
