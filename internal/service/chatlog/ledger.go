package chatlog

import (
	"context"
	"fmt"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/keys"
)

// Window is the half-open ordinal range [Prev, Latest) of visible records.
type Window struct {
	Prev   uint64
	Latest uint64
}

func (w Window) Len() uint64 {
	return w.Latest - w.Prev
}

func (w Window) Empty() bool {
	return w.Prev == w.Latest
}

func readCounter(ctx context.Context, tx core.Txn, identity string, kind keys.SeqKind) (uint64, bool, error) {
	k, err := keys.SequenceKey(identity, kind)
	if err != nil {
		return 0, false, err
	}
	raw, found, err := tx.Get(ctx, k)
	if err != nil || !found {
		return 0, false, err
	}
	v, err := keys.DecodeCounter(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s counter of %q: %w", kind, identity, err)
	}
	return v, true, nil
}

func writeCounter(ctx context.Context, tx core.Txn, identity string, kind keys.SeqKind, v uint64) error {
	k, err := keys.SequenceKey(identity, kind)
	if err != nil {
		return err
	}
	return tx.Set(ctx, k, keys.EncodeCounter(v))
}

// EnsureInitialized creates the ledger of identity with both counters at 0
// when the prev counter is absent. It reports whether it created the ledger.
func EnsureInitialized(ctx context.Context, tx core.Txn, identity string) (bool, error) {
	k, err := keys.SequenceKey(identity, keys.SeqPrev)
	if err != nil {
		return false, err
	}
	_, found, err := tx.Get(ctx, k)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	if err := writeCounter(ctx, tx, identity, keys.SeqPrev, 0); err != nil {
		return false, err
	}
	if err := writeCounter(ctx, tx, identity, keys.SeqLatest, 0); err != nil {
		return false, err
	}
	return true, nil
}

// ReadWindow returns core.ErrUninitialized when either counter is absent.
func ReadWindow(ctx context.Context, tx core.Txn, identity string) (Window, error) {
	prev, prevFound, err := readCounter(ctx, tx, identity, keys.SeqPrev)
	if err != nil {
		return Window{}, err
	}
	latest, latestFound, err := readCounter(ctx, tx, identity, keys.SeqLatest)
	if err != nil {
		return Window{}, err
	}
	if !prevFound || !latestFound {
		return Window{}, fmt.Errorf("%q: %w", identity, core.ErrUninitialized)
	}
	if latest < prev {
		return Window{}, fmt.Errorf("%w: ledger of %q has prev %d above latest %d", core.ErrEncoding, identity, prev, latest)
	}
	return Window{Prev: prev, Latest: latest}, nil
}

// AdvanceLatest reserves the next ordinal of identity and returns it. The
// record using that ordinal must be written in the same transaction.
func AdvanceLatest(ctx context.Context, tx core.Txn, identity string) (uint64, error) {
	latest, found, err := readCounter(ctx, tx, identity, keys.SeqLatest)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%q: %w", identity, core.ErrUninitialized)
	}
	if latest >= keys.MaxOrdinal {
		return 0, fmt.Errorf("%w: ordinal space of %q exhausted", core.ErrEncoding, identity)
	}
	if err := writeCounter(ctx, tx, identity, keys.SeqLatest, latest+1); err != nil {
		return 0, err
	}
	return latest, nil
}

// AdvancePrev overwrites the prev counter. Callers keep newPrev <= latest.
func AdvancePrev(ctx context.Context, tx core.Txn, identity string, newPrev uint64) error {
	return writeCounter(ctx, tx, identity, keys.SeqPrev, newPrev)
}
