package entity

import (
	"encoding/json"
	"fmt"
	"math"
)

// DistributionLine is one accounting-distribution entry on a voucher form.
// The percentages across all lines must sum to exactly 100.
type DistributionLine struct {
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
}

// VoucherForm is the structured claim detail stored on a voucher as JSON.
type VoucherForm struct {
	TravelerName           string             `json:"traveler_name"`
	TravelerTitle          string             `json:"traveler_title,omitempty"`
	AccountingDistribution []DistributionLine `json:"accounting_distribution"`
}

// distributionTolerance absorbs float accumulation noise; 99 and 101 must
// still fail.
const distributionTolerance = 1e-6

// Validate checks the form is complete enough to submit.
func (f *VoucherForm) Validate() error {
	if f.TravelerName == "" {
		return fmt.Errorf("traveler name is required")
	}
	if len(f.AccountingDistribution) == 0 {
		return fmt.Errorf("accounting distribution is required")
	}

	total := 0.0
	for i, line := range f.AccountingDistribution {
		if line.Code == "" {
			return fmt.Errorf("accounting distribution line %d is missing a code", i+1)
		}
		if line.Percentage <= 0 {
			return fmt.Errorf("accounting distribution line %d has a non-positive percentage", i+1)
		}
		total += line.Percentage
	}

	if math.Abs(total-100) > distributionTolerance {
		return fmt.Errorf("accounting distribution percentages sum to %g, expected 100", total)
	}

	return nil
}

// ParseVoucherForm decodes the JSON form payload stored on a voucher.
func ParseVoucherForm(raw string) (*VoucherForm, error) {
	if raw == "" {
		return nil, fmt.Errorf("voucher has no form data")
	}

	var form VoucherForm
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return nil, fmt.Errorf("failed to decode form data: %w", err)
	}
	return &form, nil
}
