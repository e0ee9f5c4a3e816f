package ledger

import "time"

// CanDistribute reports whether a new round may be admitted at now, and when
// the next round becomes eligible. The very first round is gated only by the
// first-payout time; later rounds additionally require the minimum spacing
// since the last round.
func (b *Book) CanDistribute(now time.Time) (bool, time.Time) {
	next := b.NextEligibleTime()
	return !now.Before(next), next
}

// NextEligibleTime returns the earliest instant a new round may be admitted.
func (b *Book) NextEligibleTime() time.Time {
	g := &b.Global
	if g.PeriodIndex == 0 {
		return g.FirstPayoutTime
	}
	next := g.LastDistribution.Add(g.MinPeriodSpacing)
	if next.Before(g.FirstPayoutTime) {
		return g.FirstPayoutTime
	}
	return next
}

// Distribute admits one payout round at now and folds amount into the
// accumulator. Admission is rejected before any state changes: zero amounts,
// an empty share supply (no fair way to attribute funds to nobody), and
// rounds ahead of schedule all fail cleanly.
//
// Rounds are unbounded: no per-round state grows with the holder set and no
// holder state grows with the round count.
func (b *Book) Distribute(amount uint64, now time.Time) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if b.Global.TotalShares == 0 {
		return ErrZeroTotalShares
	}
	if ok, _ := b.CanDistribute(now); !ok {
		return ErrTooEarlyForDistribution
	}
	return b.accrue(amount, now)
}
