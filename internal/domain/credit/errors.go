package credit

import "errors"

var (
	// ErrInsufficientFunds is returned when a debit would drive the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient credits")

	// ErrInvalidAmount is returned for a zero delta or a delta whose sign does not match the type.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTxType is returned for unknown transaction types.
	ErrInvalidTxType = errors.New("invalid transaction type")

	// ErrDuplicateReference is returned when the (user, type, reference) triple was already applied.
	ErrDuplicateReference = errors.New("duplicate ledger reference")

	// ErrBackendUnavailable wraps any storage failure.
	ErrBackendUnavailable = errors.New("credit backend unavailable")
)
