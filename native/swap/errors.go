package swap

import "errors"

// Every failure aborts the enclosing operation with no state mutation.
var (
	// ErrNotFound: the swap does not exist, either because it never did or
	// because execution (or the last reclaim) already destroyed it.
	ErrNotFound = errors.New("swap: not found")

	// Authorization failures.
	ErrNotParticipant = errors.New("swap: caller is not a participant")

	// State failures.
	ErrAlreadyDeposited = errors.New("swap: side already deposited")
	ErrNotDeposited     = errors.New("swap: side has no deposit")
	ErrNotFunded        = errors.New("swap: both deposits required")

	// Temporal failures.
	ErrExpired    = errors.New("swap: past expiration")
	ErrNotExpired = errors.New("swap: not yet expired")

	// Value failures.
	ErrZeroAmount     = errors.New("swap: amount must be positive")
	ErrAmountMismatch = errors.New("swap: deposit must match the agreed amount exactly")
)
