package core

import "context"

type KeyValue struct {
	Key   []byte
	Value []byte
}

// Txn is a single store transaction. Reads observe a consistent snapshot
// together with the transaction's own writes.
type Txn interface {
	// Get returns found=false when the key does not exist.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	Set(ctx context.Context, key, value []byte) error
	// Range returns the pairs in [begin, end) in ascending key order.
	Range(ctx context.Context, begin, end []byte) ([]KeyValue, error)
	ClearRange(ctx context.Context, begin, end []byte) error
}

// KVStore runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type KVStore interface {
	Transact(ctx context.Context, fn func(tx Txn) error) error
	Close() error
}
