// Package keys encodes the conversation keyspace.
//
// Layout (byte-wise, lexicographically sortable):
//   - {identity}\x00msg\x00{ordinal_be8}
//   - {identity}\x00seq\x00{kind}
//
// The identity is written as an escaped byte string: every 0x00 inside it
// becomes 0x00 0xFF, and the string is terminated by a bare 0x00. This keeps
// identities prefix-free, so one identity's keys never fall inside another's
// range.
package keys

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sandevgo/tusk/internal/core"
)

// SeqKind names one of the two ledger counters.
type SeqKind string

const (
	SeqPrev   SeqKind = "prev"
	SeqLatest SeqKind = "latest"
)

// MaxOrdinal is the largest ordinal that can be encoded.
const MaxOrdinal = uint64(math.MaxInt64)

var (
	msgSeg = []byte("msg")
	seqSeg = []byte("seq")
)

const (
	term   = byte(0x00)
	escape = byte(0xFF)
)

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		dst = append(dst, s[i])
		if s[i] == term {
			dst = append(dst, escape)
		}
	}
	return append(dst, term)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func prefix(identity string, seg []byte) ([]byte, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty identity", core.ErrEncoding)
	}
	k := make([]byte, 0, len(identity)+len(seg)+16)
	k = appendEscaped(k, identity)
	k = append(k, seg...)
	k = append(k, term)
	return k, nil
}

// MessagePrefix returns the prefix shared by all message keys of identity.
func MessagePrefix(identity string) ([]byte, error) {
	return prefix(identity, msgSeg)
}

// MessageKey builds the record key with a big-endian ordinal for proper ordering.
func MessageKey(identity string, ordinal uint64) ([]byte, error) {
	if ordinal > MaxOrdinal {
		return nil, fmt.Errorf("%w: ordinal %d out of range", core.ErrEncoding, ordinal)
	}
	k, err := MessagePrefix(identity)
	if err != nil {
		return nil, err
	}
	return appendBE8(k, ordinal), nil
}

// MessageRange returns scan bounds [begin, end) covering ordinals [from, to).
func MessageRange(identity string, from, to uint64) (begin, end []byte, err error) {
	if from > to {
		return nil, nil, fmt.Errorf("%w: inverted range [%d, %d)", core.ErrEncoding, from, to)
	}
	if begin, err = MessageKey(identity, from); err != nil {
		return nil, nil, err
	}
	if end, err = MessageKey(identity, to); err != nil {
		return nil, nil, err
	}
	return begin, end, nil
}

// MessagePrefixEnd returns the first key after every message key of identity.
func MessagePrefixEnd(identity string) ([]byte, error) {
	k, err := MessagePrefix(identity)
	if err != nil {
		return nil, err
	}
	// the prefix ends with the segment terminator, bumping it skips the whole segment
	k[len(k)-1]++
	return k, nil
}

// SequenceKey builds the key of one ledger counter.
func SequenceKey(identity string, kind SeqKind) ([]byte, error) {
	if kind != SeqPrev && kind != SeqLatest {
		return nil, fmt.Errorf("%w: unknown sequence kind %q", core.ErrEncoding, kind)
	}
	k, err := prefix(identity, seqSeg)
	if err != nil {
		return nil, err
	}
	return append(k, kind...), nil
}

// DecodeMessageOrdinal extracts the ordinal from a message key of identity.
func DecodeMessageOrdinal(identity string, key []byte) (uint64, error) {
	p, err := MessagePrefix(identity)
	if err != nil {
		return 0, err
	}
	if len(key) != len(p)+8 || !bytes.HasPrefix(key, p) {
		return 0, fmt.Errorf("%w: not a message key of %q", core.ErrEncoding, identity)
	}
	return binary.BigEndian.Uint64(key[len(p):]), nil
}

// EncodeCounter writes a ledger counter as 8-byte little-endian.
func EncodeCounter(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// DecodeCounter reads a ledger counter written by EncodeCounter.
func DecodeCounter(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: counter has %d bytes, want 8", core.ErrEncoding, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
