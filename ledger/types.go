// Package ledger implements the payout accounting engine for a fundraising
// sale: a cumulative rate-per-share accumulator, the claim-share registry,
// and distribution-round admission. It is pure bookkeeping; persistence and
// asset movement belong to the store and custody packages.
//
// The core correctness rule is settle-before-mutate: a holder's pending
// entitlement is checkpointed against the accumulator before any change to
// that holder's share balance, so entitlement claims stay O(1) no matter how
// many distribution rounds have elapsed.
package ledger

import (
	"math/big"
	"time"
)

// RateScale is the fixed-point precision of the accumulator: rate values are
// payout units per share, scaled by 1e18.
const RateScale = 1_000_000_000_000_000_000

var rateScale = new(big.Int).SetUint64(RateScale)

// GlobalState holds the sale-wide accounting state.
type GlobalState struct {
	TotalShares uint64 // sum of all holder share balances

	// CumulativeRate is the monotonically non-decreasing payout-per-share
	// accumulator, scaled by RateScale.
	CumulativeRate *big.Int

	// DustRemainder carries the division remainder of the last round in
	// numerator units (payout * RateScale), folded into the next round.
	DustRemainder *big.Int

	TotalPayoutReceived uint64 // lifetime payout funds admitted
	TotalPayoutClaimed  uint64 // lifetime payout funds disbursed

	PeriodIndex      uint64    // number of rounds distributed so far
	LastDistribution time.Time // zero until the first round

	FirstPayoutTime  time.Time
	MinPeriodSpacing time.Duration
	MaturityTime     time.Time

	EmergencyUnlockEnabled bool
	EmergencyPenaltyBps    uint32 // 0..5000

	// Cancelled is set when the sale is cancelled and refunded before any
	// distribution. No further mints or distributions are admitted.
	Cancelled bool
}

// Holder is one participant's position. Records are created on first deposit
// and never deleted; ClaimedTotal and PrincipalDeposited stay queryable after
// the position closes.
type Holder struct {
	ID string

	Shares uint64

	// PrincipalDeposited is the original deposited value. It is only ever
	// increased by deposits; penalties reduce the exit payout, not this field.
	PrincipalDeposited uint64

	// Checkpoint is the accumulator value last observed for this holder,
	// scaled by RateScale.
	Checkpoint *big.Int

	// USDValue is the USD valuation recorded at deposit time, informational
	// only. No conversion happens anywhere in the engine.
	USDValue uint64

	Claimable    uint64 // settled but not yet disbursed
	ClaimedTotal uint64 // lifetime disbursed, monotonic

	FinalRedeemed   bool
	EmergencyExited bool
}

// Closed reports whether the holder has reached a terminal state.
func (h *Holder) Closed() bool {
	return h.FinalRedeemed || h.EmergencyExited
}

// Clone returns a deep copy of the holder.
func (h *Holder) Clone() *Holder {
	c := *h
	c.Checkpoint = new(big.Int).Set(h.Checkpoint)
	return &c
}

// Round records one distribution event. Rounds are kept for observability
// only; entitlement computation never reads them.
type Round struct {
	Index  uint64
	Amount uint64
	Time   time.Time
}

// Schedule holds the timing and exit parameters a new Book is created with.
type Schedule struct {
	FirstPayoutTime        time.Time
	MinPeriodSpacing       time.Duration
	MaturityTime           time.Time
	EmergencyUnlockEnabled bool
	EmergencyPenaltyBps    uint32
}

// Book is the in-memory ledger: global state plus every holder record.
type Book struct {
	Global  GlobalState
	Holders map[string]*Holder
	Rounds  []Round
}

// NewBook creates an empty ledger with the given schedule.
func NewBook(sched Schedule) *Book {
	return &Book{
		Global: GlobalState{
			CumulativeRate:         new(big.Int),
			DustRemainder:          new(big.Int),
			FirstPayoutTime:        sched.FirstPayoutTime,
			MinPeriodSpacing:       sched.MinPeriodSpacing,
			MaturityTime:           sched.MaturityTime,
			EmergencyUnlockEnabled: sched.EmergencyUnlockEnabled,
			EmergencyPenaltyBps:    sched.EmergencyPenaltyBps,
		},
		Holders: make(map[string]*Holder),
	}
}

// Holder returns the record for id, or nil if the identity has never
// deposited.
func (b *Book) Holder(id string) *Holder {
	return b.Holders[id]
}

// CloneGlobal returns a deep copy of the global state.
func (b *Book) CloneGlobal() GlobalState {
	g := b.Global
	g.CumulativeRate = new(big.Int).Set(b.Global.CumulativeRate)
	g.DustRemainder = new(big.Int).Set(b.Global.DustRemainder)
	return g
}
