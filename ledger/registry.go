package ledger

import (
	"math"
	"math/big"
)

// Mint settles the holder (creating the record on first deposit, checkpointed
// at the current accumulator so no earlier round is credited retroactively)
// and then adds amount to both the holder's balance and the total supply.
// PrincipalDeposited grows by the same amount; it is never reduced by
// anything except position close.
func (b *Book) Mint(id string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	h := b.Holders[id]
	if h == nil {
		h = &Holder{
			ID:         id,
			Checkpoint: new(big.Int).Set(b.Global.CumulativeRate),
		}
		b.Holders[id] = h
	}
	if h.Closed() {
		return ErrPositionClosed
	}
	if _, err := b.Settle(id); err != nil {
		return err
	}
	if amount > math.MaxUint64-b.Global.TotalShares ||
		amount > math.MaxUint64-h.PrincipalDeposited {
		return ErrAmountOverflow
	}
	h.Shares += amount
	h.PrincipalDeposited += amount
	b.Global.TotalShares += amount
	return nil
}

// Burn settles the holder and then removes amount from the holder's balance
// and the total supply.
func (b *Book) Burn(id string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	h := b.Holders[id]
	if h == nil {
		return ErrUnknownHolder
	}
	if _, err := b.Settle(id); err != nil {
		return err
	}
	if amount > h.Shares {
		return ErrInsufficientShares
	}
	h.Shares -= amount
	b.Global.TotalShares -= amount
	return nil
}

// Transfer always fails: claim shares are a non-transferable receipt for a
// deposit, not a token.
func (b *Book) Transfer(from, to string, amount uint64) error {
	return ErrTransferNotSupported
}
