package chatlog

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/sandevgo/tusk/internal/core"
)

const (
	DefaultMaxGap    = 30
	DefaultMaxJitter = 10

	// MaxBound caps maxGap and maxJitter so that maxGap+jitter cannot overflow.
	MaxBound = 1 << 32
)

// TrimResult describes one trimmer invocation.
type TrimResult struct {
	Before  Window
	After   Window
	Trimmed bool
}

// Trimmer advances prev once a window outgrows maxGap plus a random jitter.
// The jitter spreads trims of many identities over time instead of having
// all of them trim at the same window size.
type Trimmer struct {
	maxGap    uint64
	maxJitter uint64
	jitter    func(maxJitter uint64) uint64
}

// NewTrimmer clamps maxGap and maxJitter to MaxBound.
func NewTrimmer(maxGap, maxJitter uint64) *Trimmer {
	maxGap = min(maxGap, MaxBound)
	maxJitter = min(maxJitter, MaxBound)
	return &Trimmer{
		maxGap:    maxGap,
		maxJitter: maxJitter,
		jitter:    uniformJitter,
	}
}

// WithJitter replaces the jitter source. fn receives the inclusive upper bound.
func (t *Trimmer) WithJitter(fn func(maxJitter uint64) uint64) *Trimmer {
	t.jitter = fn
	return t
}

func (t *Trimmer) MaxGap() uint64 {
	return t.maxGap
}

func uniformJitter(maxJitter uint64) uint64 {
	switch maxJitter {
	case 0:
		return 0
	case math.MaxUint64:
		return rand.Uint64()
	}
	return rand.Uint64N(maxJitter + 1)
}

// Plan returns the new prev for w given a drawn jitter. It never moves prev
// backwards and never past latest.
func (t *Trimmer) Plan(w Window, jitter uint64) (uint64, bool) {
	if w.Latest < w.Prev {
		return w.Prev, false
	}
	if n := w.Len(); n <= t.maxGap || n-t.maxGap <= jitter {
		return w.Prev, false
	}
	// unreachable behind the gap guard, kept so prev can never underflow
	if w.Latest < t.maxGap {
		return w.Prev, false
	}
	newPrev := w.Latest - t.maxGap
	if newPrev <= w.Prev {
		return w.Prev, false
	}
	return newPrev, true
}

// Trim applies the policy to identity inside tx. The jitter is drawn on
// every call.
func (t *Trimmer) Trim(ctx context.Context, tx core.Txn, identity string) (TrimResult, error) {
	w, err := ReadWindow(ctx, tx, identity)
	if err != nil {
		return TrimResult{}, err
	}

	newPrev, ok := t.Plan(w, min(t.jitter(t.maxJitter), t.maxJitter))
	if !ok {
		return TrimResult{Before: w, After: w}, nil
	}
	if err := AdvancePrev(ctx, tx, identity, newPrev); err != nil {
		return TrimResult{}, err
	}
	return TrimResult{
		Before:  w,
		After:   Window{Prev: newPrev, Latest: w.Latest},
		Trimmed: true,
	}, nil
}
