package workflow

// voucherBuilder holds the approval-chain transition table:
//
//	draft --submit--> submitted
//	submitted --supervisor_approve--> supervisor_approved
//	submitted --reject--> rejected
//	supervisor_approved --fleet_approve--> fleet_approved
//	supervisor_approved --reject--> rejected
//	rejected --reopen--> draft
//
// fleet_approved is terminal.
var voucherBuilder = func() *Builder {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)
	b.Configure(StateSubmitted).
		Permit(TriggerSupervisorApprove, StateSupervisorApproved).
		Permit(TriggerReject, StateRejected)
	b.Configure(StateSupervisorApproved).
		Permit(TriggerFleetApprove, StateFleetApproved).
		Permit(TriggerReject, StateRejected)
	b.Configure(StateRejected).
		Permit(TriggerReopen, StateDraft)
	return b
}()

// requestBuilder holds the assignment request lifecycle: pending may be
// approved or rejected, both terminal.
var requestBuilder = func() *Builder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApproveRequest, StateRequestApproved).
		Permit(TriggerRejectRequest, StateRequestRejected)
	return b
}()

// VoucherMachine returns an approval-chain machine positioned at the given
// voucher status.
func VoucherMachine(status string) (*Machine, error) {
	return voucherBuilder.Build(State(status))
}

// RequestMachine returns an assignment-request machine positioned at the
// given request status.
func RequestMachine(status string) (*Machine, error) {
	return requestBuilder.Build(State(status))
}
