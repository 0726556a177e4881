package domain

import "errors"

// Error taxonomy shared by every layer. Package-level sentinels wrap one of
// these roots so callers can classify any failure with errors.Is.
var (
	// ErrValidation malformed input; nothing was persisted
	ErrValidation = errors.New("validation error")

	// ErrConflict the requested slot (or payment) is already taken
	ErrConflict = errors.New("conflict")

	// ErrInvalidStateTransition no edge from the current state; entity unchanged
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotFound referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrPaymentFailure settlement rejected by the gateway
	ErrPaymentFailure = errors.New("payment failure")
)
