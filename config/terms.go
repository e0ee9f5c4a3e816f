// Package config defines the terms a fundraising sale is created with and
// their validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MaxPenaltyBps caps the emergency-unlock penalty at 50%.
const MaxPenaltyBps = 5000

// Terms holds the offering and payout parameters of one sale.
type Terms struct {
	// Offering limits. Zero means no limit, except HardCap which must be set.
	MinInvestment uint64 `json:"min_investment"`
	MaxInvestment uint64 `json:"max_investment"`
	SoftCap       uint64 `json:"soft_cap"`
	HardCap       uint64 `json:"hard_cap"`

	// Payout schedule.
	FirstPayoutTime  time.Time     `json:"first_payout_time"`
	MinPeriodSpacing time.Duration `json:"min_period_spacing"`
	MaturityTime     time.Time     `json:"maturity_time"`

	// Early-exit policy.
	EmergencyUnlockEnabled bool   `json:"emergency_unlock_enabled"`
	EmergencyPenaltyBps    uint32 `json:"emergency_penalty_bps"`
}

// TermsPath returns the terms file location inside a data directory.
func TermsPath(dataDir string) string {
	return filepath.Join(dataDir, "terms.json")
}

// LoadTerms reads and validates terms from a JSON file.
func LoadTerms(path string) (Terms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Terms{}, fmt.Errorf("config: read terms: %w", err)
	}
	var t Terms
	if err := json.Unmarshal(data, &t); err != nil {
		return Terms{}, fmt.Errorf("config: parse terms: %w", err)
	}
	if err := ValidateTerms(t); err != nil {
		return Terms{}, err
	}
	return t, nil
}

// SaveTerms validates and writes terms to a JSON file.
func SaveTerms(path string, t Terms) error {
	if err := ValidateTerms(t); err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode terms: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write terms: %w", err)
	}
	return nil
}
