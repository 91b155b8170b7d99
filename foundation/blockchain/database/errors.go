package database

import (
	"errors"
	"fmt"
)

// Set of error kinds. Every error returned by the ledger wraps one of
// these so callers can decide what to do with errors.Is.
var (
	// ErrStructural marks a block or transaction with a malformed shape.
	ErrStructural = errors.New("structural error")

	// ErrConsensus marks a block or transaction that breaks a ledger rule.
	ErrConsensus = errors.New("consensus violation")

	// ErrResource marks a request the caller can't fund or sign.
	ErrResource = errors.New("resource error")

	// ErrConflict marks a transaction that collides with one already pooled.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a query for a block or transaction the chain
	// doesn't hold.
	ErrNotFound = errors.New("not found")
)

// Specific errors callers care about.
var (
	// ErrInsufficientFunds is returned when the spendable outputs can't
	// cover the requested amount.
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", ErrResource)

	// ErrSignerMismatch is returned when signing an input with a key that
	// doesn't own the referenced output.
	ErrSignerMismatch = fmt.Errorf("%w: signer does not own the referenced output", ErrResource)

	// ErrChainForked is returned from ValidateBlock if the block is ahead of
	// our tip or doesn't link to it. The network layer should resync.
	ErrChainForked = fmt.Errorf("%w: blockchain forked, start resync", ErrConsensus)

	// ErrTxConflict is returned when a transaction claims an output already
	// claimed by a pooled transaction.
	ErrTxConflict = fmt.Errorf("%w: txIn already referenced by a pooled transaction", ErrConflict)

	// ErrNotHeavier is returned when a candidate chain doesn't carry more
	// accumulated difficulty than the local chain.
	ErrNotHeavier = fmt.Errorf("%w: chain does not have greater accumulated difficulty", ErrConsensus)
)

// structural wraps the message as a structural error.
func structural(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

// consensus wraps the message as a consensus violation.
func consensus(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsensus, fmt.Sprintf(format, args...))
}
