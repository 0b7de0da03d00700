package core

import "errors"

// Precondition violations. Surfaced to the caller before any book
// mutation begins.
var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidSide     = errors.New("invalid side")
	ErrOrderExists     = errors.New("order exists")
	ErrSymbolMismatch  = errors.New("symbol mismatch")
)

// Invariant violations. Unreachable while the book contract holds;
// reported as defects, never retried.
var (
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrNonexistentOrder     = errors.New("nonexistent order")
)
