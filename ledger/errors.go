package ledger

import "errors"

var (
	// ErrInvalidAmount indicates a zero amount where a positive one is required.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrInsufficientShares indicates a burn larger than the holder's balance.
	ErrInsufficientShares = errors.New("ledger: insufficient shares")

	// ErrTransferNotSupported indicates an attempt to move shares between
	// holders; claim shares are non-transferable receipts.
	ErrTransferNotSupported = errors.New("ledger: share transfers not supported")

	// ErrZeroTotalShares indicates a distribution with no outstanding shares
	// to attribute the funds to.
	ErrZeroTotalShares = errors.New("ledger: zero total shares")

	// ErrTooEarlyForDistribution indicates the round spacing or first-payout
	// gate has not been reached.
	ErrTooEarlyForDistribution = errors.New("ledger: too early for distribution")

	// ErrUnknownHolder indicates the identity has never deposited.
	ErrUnknownHolder = errors.New("ledger: unknown holder")

	// ErrPositionClosed indicates the holder already exited or redeemed.
	ErrPositionClosed = errors.New("ledger: holder position is closed")

	// ErrAmountOverflow indicates an amount outside the uint64 range.
	ErrAmountOverflow = errors.New("ledger: amount overflow")

	// ErrCheckpointAhead indicates a holder checkpoint greater than the
	// accumulator; the ledger state is corrupt if this ever surfaces.
	ErrCheckpointAhead = errors.New("ledger: checkpoint ahead of accumulator")
)
