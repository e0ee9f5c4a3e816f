package config

import "errors"

var (
	// ErrMissingHardCap indicates the terms have no hard cap.
	ErrMissingHardCap = errors.New("config: hard cap is required")

	// ErrInvalidCaps indicates the soft cap exceeds the hard cap.
	ErrInvalidCaps = errors.New("config: invalid caps")

	// ErrInvalidInvestmentRange indicates inconsistent min/max investment limits.
	ErrInvalidInvestmentRange = errors.New("config: invalid investment range")

	// ErrMissingFirstPayout indicates the first payout time is unset.
	ErrMissingFirstPayout = errors.New("config: first payout time is required")

	// ErrInvalidPeriodSpacing indicates a non-positive minimum round spacing.
	ErrInvalidPeriodSpacing = errors.New("config: invalid period spacing")

	// ErrInvalidMaturity indicates maturity does not follow the first payout.
	ErrInvalidMaturity = errors.New("config: maturity must follow first payout")

	// ErrInvalidPenalty indicates an emergency penalty above the cap.
	ErrInvalidPenalty = errors.New("config: invalid emergency penalty")
)
