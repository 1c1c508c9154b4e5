package entity

import "time"

// Voucher is a monthly mileage reimbursement claim. One voucher exists per
// (user, month, year); status follows the approval-chain state machine.
type Voucher struct {
	ID                  int64      `json:"id"`
	Reference           string     `json:"reference"`
	UserID              int64      `json:"user_id"`
	Month               int        `json:"month"`
	Year                int        `json:"year"`
	Status              string     `json:"status"`
	TotalMiles          float64    `json:"total_miles"`
	TotalAmountCents    int64      `json:"total_amount_cents"`
	RequiredChannel     Channel    `json:"required_channel,omitempty"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
	SupervisorID        *int64     `json:"supervisor_id,omitempty"`
	SupervisorApprovedAt *time.Time `json:"supervisor_approved_at,omitempty"`
	FleetManagerID      *int64     `json:"fleet_manager_id,omitempty"`
	FleetApprovedAt     *time.Time `json:"fleet_approved_at,omitempty"`
	RejectionReason     string     `json:"rejection_reason,omitempty"`
	FormData            string     `json:"form_data,omitempty"`
	PDFURL              string     `json:"pdf_url,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Editable returns true if the owner may still modify the voucher's trips
// and form data.
func (v *Voucher) Editable() bool {
	return v.Status == VoucherStatusDraft || v.Status == VoucherStatusRejected
}
