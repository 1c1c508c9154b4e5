package entity

import "time"

// Audit action types recorded against a voucher.
const (
	ActionSubmit            = "submit"
	ActionSupervisorApprove = "supervisor_approve"
	ActionFleetApprove      = "fleet_approve"
	ActionReject            = "reject"
	ActionReopen            = "reopen"
)

// VoucherHistory is one immutable audit record written alongside every
// voucher status transition, in the same transaction.
type VoucherHistory struct {
	ID             int64     `json:"id"`
	EventID        string    `json:"event_id"`
	VoucherID      int64     `json:"voucher_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	ActorID        int64     `json:"actor_id"`
	ActionData     string    `json:"action_data,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
