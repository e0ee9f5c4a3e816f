package config

import "fmt"

// ValidateTerms checks that all sale terms are within acceptable ranges and
// returns the first error encountered, or nil if valid.
func ValidateTerms(t Terms) error {
	if t.HardCap == 0 {
		return ErrMissingHardCap
	}
	if t.SoftCap > t.HardCap {
		return fmt.Errorf("%w: soft cap %d exceeds hard cap %d", ErrInvalidCaps, t.SoftCap, t.HardCap)
	}
	if t.MaxInvestment != 0 && t.MinInvestment > t.MaxInvestment {
		return fmt.Errorf("%w: min %d exceeds max %d", ErrInvalidInvestmentRange, t.MinInvestment, t.MaxInvestment)
	}
	if t.MaxInvestment > t.HardCap {
		return fmt.Errorf("%w: max investment %d exceeds hard cap %d", ErrInvalidInvestmentRange, t.MaxInvestment, t.HardCap)
	}

	if t.FirstPayoutTime.IsZero() {
		return ErrMissingFirstPayout
	}
	if t.MinPeriodSpacing <= 0 {
		return ErrInvalidPeriodSpacing
	}
	if !t.MaturityTime.After(t.FirstPayoutTime) {
		return ErrInvalidMaturity
	}

	if t.EmergencyPenaltyBps > MaxPenaltyBps {
		return fmt.Errorf("%w: %d bps (max %d)", ErrInvalidPenalty, t.EmergencyPenaltyBps, MaxPenaltyBps)
	}

	return nil
}
