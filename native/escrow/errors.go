package escrow

import "errors"

// Every failure aborts the enclosing operation with no state mutation; the
// sentinels below let callers (and the RPC layer) classify the abort.
var (
	// ErrNotFound: the record does not exist, either because it never did or
	// because a terminal transition already destroyed it.
	ErrNotFound = errors.New("escrow: not found")

	// Authorization failures.
	ErrNotSender    = errors.New("escrow: caller is not the sender")
	ErrNotRecipient = errors.New("escrow: caller is not the recipient")
	ErrNotArbiter   = errors.New("escrow: caller is not the arbiter")
	ErrNotParty     = errors.New("escrow: caller is neither sender nor recipient")

	// State failures.
	ErrNoArbiter   = errors.New("escrow: no arbiter appointed")
	ErrInDispute   = errors.New("escrow: record is in dispute")
	ErrNotDisputed = errors.New("escrow: record is not in dispute")

	// Temporal failures.
	ErrTimeLocked = errors.New("escrow: unlock time not reached")

	// Value failures.
	ErrZeroAmount = errors.New("escrow: amount must be positive")
)
