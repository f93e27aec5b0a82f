package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandevgo/tusk/internal/core"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// KVStore persists the keyspace in PostgreSQL. Transactions run SERIALIZABLE,
// so concurrent read-modify-write on the same ledger aborts one side with a
// serialization failure that surfaces as core.ErrConflict.
type KVStore struct {
	pool *pgxpool.Pool
}

func NewKVStore(ctx context.Context, databaseURL string) (*KVStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &KVStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key   BYTEA PRIMARY KEY,
			value BYTEA NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return classify(fmt.Errorf("init schema failed on %q: %w", stmt, err))
		}
	}
	return nil
}

func (s *KVStore) Transact(ctx context.Context, fn func(tx core.Txn) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := fn(&txn{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *KVStore) Close() error {
	s.pool.Close()
	return nil
}

type txn struct {
	tx pgx.Tx
}

func (t *txn) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(fmt.Errorf("get: %w", err))
	}
	return value, true, nil
}

func (t *txn) Set(ctx context.Context, key, value []byte) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return classify(fmt.Errorf("set: %w", err))
	}
	return nil
}

func (t *txn) Range(ctx context.Context, begin, end []byte) ([]core.KeyValue, error) {
	rows, err := t.tx.Query(ctx, `SELECT key, value FROM kv WHERE key >= $1 AND key < $2 ORDER BY key`, begin, end)
	if err != nil {
		return nil, classify(fmt.Errorf("range: %w", err))
	}
	defer rows.Close()

	var kvs []core.KeyValue
	for rows.Next() {
		var kv core.KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("scan kv row: %w", err)
		}
		kvs = append(kvs, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate kv rows: %w", err))
	}
	return kvs, nil
}

func (t *txn) ClearRange(ctx context.Context, begin, end []byte) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM kv WHERE key >= $1 AND key < $2`, begin, end); err != nil {
		return classify(fmt.Errorf("clear range: %w", err))
	}
	return nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	return err
}
