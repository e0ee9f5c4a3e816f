package sale

import (
	"time"

	"github.com/openraise/libraise-go/ledger"
)

// PayoutBalance is a holder's payout entitlement at a point in time.
type PayoutBalance struct {
	// TotalAvailable is everything the holder could claim right now:
	// settled balance plus unsettled pending.
	TotalAvailable uint64

	// Claimable is only the already-settled portion.
	Claimable uint64
}

// PeriodInfo is the distribution schedule position.
type PeriodInfo struct {
	PeriodIndex      uint64
	CanDistribute    bool
	NextEligibleTime time.Time
}

// InvestorState is the queryable lifecycle state of one holder. It stays
// available after the position closes.
type InvestorState struct {
	Shares             uint64
	PrincipalDeposited uint64
	USDValue           uint64
	ClaimedTotal       uint64
	FinalRedeemed      bool
	EmergencyExited    bool
}

// UserPayoutBalance reports what user could claim now, split into settled and
// total.
func (s *Sale) UserPayoutBalance(user string) (PayoutBalance, error) {
	if err := s.begin(); err != nil {
		return PayoutBalance{}, err
	}
	defer s.mu.Unlock()

	h := s.Book.Holder(user)
	if h == nil {
		return PayoutBalance{}, ledger.ErrUnknownHolder
	}
	pending, err := s.Book.Pending(user)
	if err != nil {
		return PayoutBalance{}, err
	}
	return PayoutBalance{
		TotalAvailable: h.Claimable + pending,
		Claimable:      h.Claimable,
	}, nil
}

// CurrentPeriodInfo reports the round counter and whether a new round could
// be admitted right now.
func (s *Sale) CurrentPeriodInfo() (PeriodInfo, error) {
	if err := s.begin(); err != nil {
		return PeriodInfo{}, err
	}
	defer s.mu.Unlock()

	can, next := s.Book.CanDistribute(s.now())
	if s.Book.Global.TotalShares == 0 || s.Book.Global.Cancelled {
		can = false
	}
	return PeriodInfo{
		PeriodIndex:      s.Book.Global.PeriodIndex,
		CanDistribute:    can,
		NextEligibleTime: next,
	}, nil
}

// InvestorStateOf returns the lifecycle state of user.
func (s *Sale) InvestorStateOf(user string) (InvestorState, error) {
	if err := s.begin(); err != nil {
		return InvestorState{}, err
	}
	defer s.mu.Unlock()

	h := s.Book.Holder(user)
	if h == nil {
		return InvestorState{}, ledger.ErrUnknownHolder
	}
	return InvestorState{
		Shares:             h.Shares,
		PrincipalDeposited: h.PrincipalDeposited,
		USDValue:           h.USDValue,
		ClaimedTotal:       h.ClaimedTotal,
		FinalRedeemed:      h.FinalRedeemed,
		EmergencyExited:    h.EmergencyExited,
	}, nil
}
