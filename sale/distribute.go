package sale

import (
	"context"
	"fmt"
)

// DistributePayout admits one payout round: the amount is folded into the
// accumulator and then pulled from the operator into escrow. Operator only.
// Admission rejects zero amounts, an empty share supply, and rounds ahead of
// schedule before any state changes.
func (s *Sale) DistributePayout(ctx context.Context, access AccessContext, amount uint64) error {
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

	sn := s.snapshot()
	if err := s.Book.Distribute(amount, s.now()); err != nil {
		return err
	}

	if err := s.Payout.Pull(ctx, access.Actor, amount); err != nil {
		s.restore(sn)
		return fmt.Errorf("pull payout funds: %w", err)
	}
	if err := s.commit(sn); err != nil {
		s.restore(sn)
		return fmt.Errorf("commit distribution: %w", err)
	}
	return nil
}
