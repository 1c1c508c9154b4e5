// Package workflow provides the builder-style state machine behind the
// voucher approval chain and the assignment request lifecycle, plus the
// failure kinds every transition operation reports.
package workflow

// State is a named state in an approval lifecycle. The set of valid states
// and their transitions belong to the machine built for a given entity, not
// to this package.
type State string

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Trigger is an event that may cause a state transition.
type Trigger string

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

// Voucher approval chain.
const (
	StateDraft              State = "draft"
	StateSubmitted          State = "submitted"
	StateSupervisorApproved State = "supervisor_approved"
	StateFleetApproved      State = "fleet_approved"
	StateRejected           State = "rejected"

	TriggerSubmit            Trigger = "submit"
	TriggerSupervisorApprove Trigger = "supervisor_approve"
	TriggerFleetApprove      Trigger = "fleet_approve"
	TriggerReject            Trigger = "reject"
	TriggerReopen            Trigger = "reopen"
)

// Assignment request lifecycle.
const (
	StatePending         State = "pending"
	StateRequestApproved State = "approved"
	StateRequestRejected State = "rejected"

	TriggerApproveRequest Trigger = "approve_request"
	TriggerRejectRequest  Trigger = "reject_request"
)
