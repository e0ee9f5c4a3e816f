package sale

import (
	"context"
	"fmt"
)

// RegisterInvestment admits one funded investment: shares are minted 1:1
// against the deposit, the deposit is pulled into escrow, and the result is
// committed. This is the only path that creates shares. usdValue is the
// deposit's USD valuation at entry, recorded on the holder and never
// converted.
func (s *Sale) RegisterInvestment(ctx context.Context, access AccessContext, amount, usdValue uint64) error {
	if err := requireActor(access); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.Book.Global.Cancelled {
		return ErrSaleCancelled
	}
	if s.Terms.MinInvestment > 0 && amount < s.Terms.MinInvestment {
		return fmt.Errorf("%w: %d < %d", ErrBelowMinInvestment, amount, s.Terms.MinInvestment)
	}
	if s.Terms.MaxInvestment > 0 {
		var already uint64
		if h := s.Book.Holder(access.Actor); h != nil {
			already = h.PrincipalDeposited
		}
		if already+amount > s.Terms.MaxInvestment {
			return fmt.Errorf("%w: %d + %d > %d", ErrAboveMaxInvestment, already, amount, s.Terms.MaxInvestment)
		}
	}
	if s.Terms.HardCap > 0 && s.totalDeposited()+amount > s.Terms.HardCap {
		return fmt.Errorf("%w: cap %d", ErrHardCapReached, s.Terms.HardCap)
	}

	sn := s.snapshot(access.Actor)
	if err := s.Book.Mint(access.Actor, amount); err != nil {
		return err
	}
	s.Book.Holder(access.Actor).USDValue += usdValue

	if err := s.Principal.Pull(ctx, access.Actor, amount); err != nil {
		s.restore(sn)
		return fmt.Errorf("pull deposit: %w", err)
	}
	if err := s.commit(sn, access.Actor); err != nil {
		s.restore(sn)
		return fmt.Errorf("commit investment: %w", err)
	}
	return nil
}

// CancelAndRefund aborts the sale before any payout round: every live
// holder's full principal is pushed back, their positions close, and the sale
// admits nothing further. Operator only.
func (s *Sale) CancelAndRefund(ctx context.Context, access AccessContext) error {
	if err := requireOperator(access); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.Book.Global.Cancelled {
		return ErrSaleCancelled
	}
	if s.Book.Global.PeriodIndex > 0 {
		return ErrAlreadyDistributed
	}

	ids := s.liveHolderIDs()
	sn := s.snapshot(ids...)

	refunds := make(map[string]uint64, len(ids))
	for _, id := range ids {
		h := s.Book.Holder(id)
		if err := s.Book.Burn(id, h.Shares); err != nil {
			s.restore(sn)
			return err
		}
		h.EmergencyExited = true
		refunds[id] = h.PrincipalDeposited
	}
	s.Book.Global.Cancelled = true

	for _, id := range ids {
		if _, err := s.Principal.Push(ctx, id, refunds[id]); err != nil {
			s.restore(sn)
			return fmt.Errorf("refund %s: %w", id, err)
		}
	}
	if err := s.commit(sn, ids...); err != nil {
		s.restore(sn)
		return fmt.Errorf("commit cancellation: %w", err)
	}
	return nil
}
