package custody

import "errors"

var (
	// ErrInvalidDestination indicates the destination is neither a valid
	// address nor a resolvable handle.
	ErrInvalidDestination = errors.New("custody: invalid destination")

	// ErrInsufficientFunds indicates escrow does not hold enough to cover
	// the push amount plus fees.
	ErrInsufficientFunds = errors.New("custody: insufficient escrow funds")

	// ErrDepositNotFound indicates no matching deposit was found in escrow.
	ErrDepositNotFound = errors.New("custody: deposit not found")

	// ErrTxBuild indicates the settlement transaction could not be
	// constructed or signed.
	ErrTxBuild = errors.New("custody: transaction build failed")
)
