package sale

import "errors"

var (
	// ErrOperationInProgress indicates another operation holds the sale lock.
	// The dangerous case is a custody callee re-entering the sale before the
	// triggering operation finishes; the guard turns that into an error.
	ErrOperationInProgress = errors.New("sale: operation in progress")

	// ErrUnauthorized indicates the caller lacks the required role.
	ErrUnauthorized = errors.New("sale: unauthorized")

	// ErrSaleCancelled indicates the sale was cancelled and refunded.
	ErrSaleCancelled = errors.New("sale: sale cancelled")

	// ErrBelowMinInvestment indicates a deposit under the minimum.
	ErrBelowMinInvestment = errors.New("sale: below minimum investment")

	// ErrAboveMaxInvestment indicates a holder's cumulative deposits would
	// exceed the per-investor maximum.
	ErrAboveMaxInvestment = errors.New("sale: above maximum investment")

	// ErrHardCapReached indicates the deposit would push total deposits over
	// the hard cap.
	ErrHardCapReached = errors.New("sale: hard cap reached")

	// ErrNothingToClaim indicates the holder has no claimable balance and no
	// deposit.
	ErrNothingToClaim = errors.New("sale: nothing to claim")

	// ErrEmergencyUnlockDisabled indicates the sale terms do not allow early
	// exit.
	ErrEmergencyUnlockDisabled = errors.New("sale: emergency unlock disabled")

	// ErrNotMatured indicates final redemption was attempted before the
	// maturity time.
	ErrNotMatured = errors.New("sale: not matured")

	// ErrAlreadyDistributed indicates cancellation was attempted after a
	// payout round was admitted.
	ErrAlreadyDistributed = errors.New("sale: payouts already distributed")
)
