package ledger

import (
	"math"
	"math/big"
	"time"
)

// Settle folds the accumulator movement since the holder's last checkpoint
// into the holder's claimable balance and advances the checkpoint.
//
// Settle is idempotent between distributions (second call returns 0) and must
// run before any mutation of the holder's share balance; Mint and Burn call
// it themselves. The returned value is the newly settled amount, not the full
// claimable balance.
func (b *Book) Settle(id string) (uint64, error) {
	h := b.Holders[id]
	if h == nil {
		return 0, ErrUnknownHolder
	}
	pending, err := pendingAmount(h.Shares, b.Global.CumulativeRate, h.Checkpoint)
	if err != nil {
		return 0, err
	}
	if pending > math.MaxUint64-h.Claimable {
		return 0, ErrAmountOverflow
	}
	h.Claimable += pending
	h.Checkpoint.Set(b.Global.CumulativeRate)
	return pending, nil
}

// Pending returns what Settle would credit for the holder right now, without
// mutating anything.
func (b *Book) Pending(id string) (uint64, error) {
	h := b.Holders[id]
	if h == nil {
		return 0, ErrUnknownHolder
	}
	return pendingAmount(h.Shares, b.Global.CumulativeRate, h.Checkpoint)
}

// accrue admits amount into the accumulator. The caller has already passed
// admission control (see Distribute).
func (b *Book) accrue(amount uint64, now time.Time) error {
	g := &b.Global
	if amount > math.MaxUint64-g.TotalPayoutReceived {
		return ErrAmountOverflow
	}

	// delta = (amount*RateScale + carried dust) / totalShares, with the new
	// remainder carried to the next round instead of lost.
	num := new(big.Int).SetUint64(amount)
	num.Mul(num, rateScale)
	num.Add(num, g.DustRemainder)
	den := new(big.Int).SetUint64(g.TotalShares)
	delta, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	g.CumulativeRate.Add(g.CumulativeRate, delta)
	g.DustRemainder = rem
	g.TotalPayoutReceived += amount
	g.PeriodIndex++
	g.LastDistribution = now

	b.Rounds = append(b.Rounds, Round{Index: g.PeriodIndex, Amount: amount, Time: now})
	return nil
}

// pendingAmount computes shares * (cum - checkpoint) / RateScale. The
// multiplication is done at arbitrary precision so the product cannot
// overflow before the divide.
func pendingAmount(shares uint64, cum, checkpoint *big.Int) (uint64, error) {
	diff := new(big.Int).Sub(cum, checkpoint)
	if diff.Sign() < 0 {
		return 0, ErrCheckpointAhead
	}
	diff.Mul(diff, new(big.Int).SetUint64(shares))
	diff.Quo(diff, rateScale)
	if !diff.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return diff.Uint64(), nil
}
