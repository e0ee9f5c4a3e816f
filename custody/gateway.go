// Package custody moves funds between the platform and the outside world.
// The ledger decides who is owed what; a Gateway is how the owed amounts
// actually enter and leave escrow.
package custody

import "context"

// Gateway is the funds-movement interface the sale controller depends on.
// One gateway instance handles one asset: the principal gateway moves
// investment capital, the payout gateway moves distribution proceeds.
type Gateway interface {
	// Pull confirms that amount has been deposited into escrow by the named
	// counterparty. It returns an error if the deposit cannot be verified.
	Pull(ctx context.Context, from string, amount uint64) error

	// Push sends amount from escrow to the named counterparty and returns a
	// settlement reference (the transaction ID for on-chain gateways).
	Push(ctx context.Context, to string, amount uint64) (string, error)
}
