package sale

import (
	"context"
	"fmt"
	"math/big"

	"github.com/openraise/libraise-go/ledger"
)

// ClaimAvailablePayouts settles the caller and disburses the full claimable
// balance through the payout gateway. Claiming is repeatable at any
// frequency; claiming with nothing accrued but a live deposit returns 0
// without a transfer. Cost is independent of how many rounds elapsed since
// the last claim.
func (s *Sale) ClaimAvailablePayouts(ctx context.Context, access AccessContext) (uint64, error) {
	if err := requireActor(access); err != nil {
		return 0, err
	}
	if err := s.begin(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	h := s.Book.Holder(access.Actor)
	if h == nil {
		return 0, ErrNothingToClaim
	}

	sn := s.snapshot(access.Actor)
	if _, err := s.Book.Settle(access.Actor); err != nil {
		return 0, err
	}

	amount := h.Claimable
	if amount == 0 {
		s.restore(sn)
		if h.PrincipalDeposited == 0 {
			return 0, ErrNothingToClaim
		}
		return 0, nil
	}

	h.Claimable = 0
	h.ClaimedTotal += amount
	s.Book.Global.TotalPayoutClaimed += amount

	if _, err := s.Payout.Push(ctx, access.Actor, amount); err != nil {
		s.restore(sn)
		return 0, fmt.Errorf("push payout: %w", err)
	}
	if err := s.commit(sn, access.Actor); err != nil {
		s.restore(sn)
		return 0, fmt.Errorf("commit claim: %w", err)
	}
	return amount, nil
}

// EmergencyUnlock closes the caller's position early: pending payouts are
// settled and disbursed exactly as a normal claim would, the shares burn, the
// terminal flag is set, and the principal minus the penalty is returned. The
// returned value is the principal refund. PrincipalDeposited keeps its
// historical value afterward; shares == 0 plus the flag is the authoritative
// closed-position signal.
func (s *Sale) EmergencyUnlock(ctx context.Context, access AccessContext) (uint64, error) {
	if err := requireActor(access); err != nil {
		return 0, err
	}
	if err := s.begin(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	h := s.Book.Holder(access.Actor)
	if h == nil {
		return 0, ledger.ErrUnknownHolder
	}
	if !s.Book.Global.EmergencyUnlockEnabled {
		return 0, ErrEmergencyUnlockDisabled
	}
	if h.Closed() {
		return 0, ledger.ErrPositionClosed
	}
	if h.Shares == 0 {
		return 0, ledger.ErrInsufficientShares
	}

	sn := s.snapshot(access.Actor)
	payout, refund, err := s.closePosition(h, true)
	if err != nil {
		s.restore(sn)
		return 0, err
	}
	h.EmergencyExited = true

	if err := s.disburseExit(ctx, access.Actor, payout, refund); err != nil {
		s.restore(sn)
		return 0, err
	}
	if err := s.commit(sn, access.Actor); err != nil {
		s.restore(sn)
		return 0, fmt.Errorf("commit emergency unlock: %w", err)
	}
	return refund, nil
}

// ClaimFinalTokens redeems the caller's principal in full at maturity, after
// settling and disbursing any unclaimed payouts. The returned value is the
// redeemed principal.
func (s *Sale) ClaimFinalTokens(ctx context.Context, access AccessContext) (uint64, error) {
	if err := requireActor(access); err != nil {
		return 0, err
	}
	if err := s.begin(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	h := s.Book.Holder(access.Actor)
	if h == nil {
		return 0, ledger.ErrUnknownHolder
	}
	if s.now().Before(s.Book.Global.MaturityTime) {
		return 0, fmt.Errorf("%w: maturity at %s", ErrNotMatured, s.Book.Global.MaturityTime)
	}
	if h.Closed() {
		return 0, ledger.ErrPositionClosed
	}
	if h.Shares == 0 {
		return 0, ledger.ErrInsufficientShares
	}

	sn := s.snapshot(access.Actor)
	payout, refund, err := s.closePosition(h, false)
	if err != nil {
		s.restore(sn)
		return 0, err
	}
	h.FinalRedeemed = true

	if err := s.disburseExit(ctx, access.Actor, payout, refund); err != nil {
		s.restore(sn)
		return 0, err
	}
	if err := s.commit(sn, access.Actor); err != nil {
		s.restore(sn)
		return 0, fmt.Errorf("commit final redemption: %w", err)
	}
	return refund, nil
}

// closePosition runs the shared exit sequence: settle, stage the claimable
// payout, burn all shares, and compute the principal refund. The caller sets
// the terminal flag and performs the transfers.
func (s *Sale) closePosition(h *ledger.Holder, penalized bool) (payout, refund uint64, err error) {
	if _, err = s.Book.Settle(h.ID); err != nil {
		return 0, 0, err
	}
	payout = h.Claimable
	h.Claimable = 0
	h.ClaimedTotal += payout
	s.Book.Global.TotalPayoutClaimed += payout

	if err = s.Book.Burn(h.ID, h.Shares); err != nil {
		return 0, 0, err
	}

	refund = h.PrincipalDeposited
	if penalized {
		refund -= penaltyOf(h.PrincipalDeposited, s.Book.Global.EmergencyPenaltyBps)
	}
	return payout, refund, nil
}

// disburseExit pushes the staged payout and the principal refund, in that
// order, after all internal mutation is complete.
func (s *Sale) disburseExit(ctx context.Context, actor string, payout, refund uint64) error {
	if payout > 0 {
		if _, err := s.Payout.Push(ctx, actor, payout); err != nil {
			return fmt.Errorf("push payout: %w", err)
		}
	}
	if refund > 0 {
		if _, err := s.Principal.Push(ctx, actor, refund); err != nil {
			return fmt.Errorf("push principal: %w", err)
		}
	}
	return nil
}

// penaltyOf computes principal * bps / 10000 without overflow. bps is capped
// at 5000 by terms validation, so the penalty never exceeds the principal.
func penaltyOf(principal uint64, bps uint32) uint64 {
	p := new(big.Int).SetUint64(principal)
	p.Mul(p, new(big.Int).SetUint64(uint64(bps)))
	p.Quo(p, big.NewInt(10_000))
	return p.Uint64()
}
