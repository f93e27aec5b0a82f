package core

import "errors"

var (
	// ErrUninitialized means the sequence ledger of an identity was never created.
	ErrUninitialized = errors.New("identity not initialized")
	// ErrEncoding is returned for malformed identities, ordinals or counter values.
	ErrEncoding = errors.New("encoding error")
	// ErrConflict is a transient transaction conflict. Safe to retry.
	ErrConflict = errors.New("transaction conflict")
	// ErrUnavailable covers connectivity failures and store timeouts.
	ErrUnavailable = errors.New("store unavailable")
)
