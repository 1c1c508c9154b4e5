package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestVoucherMachine_HappyPath(t *testing.T) {
	machine, err := VoucherMachine("draft")
	if err != nil {
		t.Fatalf("VoucherMachine() failed: %v", err)
	}

	steps := []struct {
		trigger       Trigger
		expectedState State
	}{
		{TriggerSubmit, StateSubmitted},
		{TriggerSupervisorApprove, StateSupervisorApproved},
		{TriggerFleetApprove, StateFleetApproved},
	}

	for i, step := range steps {
		next, err := machine.Fire(context.Background(), step.trigger)
		if err != nil {
			t.Fatalf("Step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if next != step.expectedState {
			t.Errorf("Step %d: Fire(%v) = %v, want %v", i, step.trigger, next, step.expectedState)
		}
	}

	if !machine.Terminal() {
		t.Error("fleet_approved should be terminal")
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("Terminal state should have 0 permitted triggers, got %v", triggers)
	}
}

func TestVoucherMachine_RejectFromSubmitted(t *testing.T) {
	machine, err := VoucherMachine("submitted")
	if err != nil {
		t.Fatalf("VoucherMachine() failed: %v", err)
	}

	next, err := machine.Fire(context.Background(), TriggerReject)
	if err != nil {
		t.Fatalf("Fire(TriggerReject) failed: %v", err)
	}
	if next != StateRejected {
		t.Errorf("Fire() = %v, want %v", next, StateRejected)
	}
	if machine.Terminal() {
		t.Error("rejected voucher should not be terminal, reopen is permitted")
	}
}

func TestVoucherMachine_RejectFromSupervisorApproved(t *testing.T) {
	machine, err := VoucherMachine("supervisor_approved")
	if err != nil {
		t.Fatalf("VoucherMachine() failed: %v", err)
	}

	next, err := machine.Fire(context.Background(), TriggerReject)
	if err != nil {
		t.Fatalf("Fire(TriggerReject) failed: %v", err)
	}
	if next != StateRejected {
		t.Errorf("Fire() = %v, want %v", next, StateRejected)
	}
}

func TestVoucherMachine_ReopenCycle(t *testing.T) {
	machine, err := VoucherMachine("rejected")
	if err != nil {
		t.Fatalf("VoucherMachine() failed: %v", err)
	}

	next, err := machine.Fire(context.Background(), TriggerReopen)
	if err != nil {
		t.Fatalf("Fire(TriggerReopen) failed: %v", err)
	}
	if next != StateDraft {
		t.Errorf("Fire() = %v, want %v", next, StateDraft)
	}

	// The reopened draft runs the full chain again.
	if _, err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire(TriggerSubmit) failed: %v", err)
	}
	if machine.State() != StateSubmitted {
		t.Errorf("State() = %v, want %v", machine.State(), StateSubmitted)
	}
}

func TestVoucherMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		status  string
		trigger Trigger
	}{
		{"draft", TriggerSupervisorApprove},
		{"draft", TriggerFleetApprove},
		{"draft", TriggerReject},
		{"submitted", TriggerSubmit},
		{"submitted", TriggerFleetApprove},
		{"supervisor_approved", TriggerSubmit},
		{"supervisor_approved", TriggerSupervisorApprove},
		{"fleet_approved", TriggerReject},
		{"fleet_approved", TriggerReopen},
		{"rejected", TriggerSubmit},
		{"rejected", TriggerSupervisorApprove},
	}

	for _, tt := range tests {
		t.Run(tt.status+"_"+string(tt.trigger), func(t *testing.T) {
			machine, err := VoucherMachine(tt.status)
			if err != nil {
				t.Fatalf("VoucherMachine() failed: %v", err)
			}
			_, err = machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("Fire(%v) from %v error = %v, want %v", tt.trigger, tt.status, err, ErrInvalidState)
			}
		})
	}
}

func TestVoucherMachine_UnknownStatus(t *testing.T) {
	_, err := VoucherMachine("archived")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("VoucherMachine() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestRequestMachine_Approve(t *testing.T) {
	machine, err := RequestMachine("pending")
	if err != nil {
		t.Fatalf("RequestMachine() failed: %v", err)
	}

	next, err := machine.Fire(context.Background(), TriggerApproveRequest)
	if err != nil {
		t.Fatalf("Fire(TriggerApproveRequest) failed: %v", err)
	}
	if next != StateRequestApproved {
		t.Errorf("Fire() = %v, want %v", next, StateRequestApproved)
	}
	if !machine.Terminal() {
		t.Error("approved request should be terminal")
	}
}

func TestRequestMachine_Reject(t *testing.T) {
	machine, err := RequestMachine("pending")
	if err != nil {
		t.Fatalf("RequestMachine() failed: %v", err)
	}

	next, err := machine.Fire(context.Background(), TriggerRejectRequest)
	if err != nil {
		t.Fatalf("Fire(TriggerRejectRequest) failed: %v", err)
	}
	if next != StateRequestRejected {
		t.Errorf("Fire() = %v, want %v", next, StateRequestRejected)
	}
	if !machine.Terminal() {
		t.Error("rejected request should be terminal")
	}
}

func TestRequestMachine_TerminalStatesRefuseTriggers(t *testing.T) {
	for _, status := range []string{"approved", "rejected"} {
		t.Run(status, func(t *testing.T) {
			machine, err := RequestMachine(status)
			if err != nil {
				t.Fatalf("RequestMachine() failed: %v", err)
			}
			_, err = machine.Fire(context.Background(), TriggerApproveRequest)
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("Fire() error = %v, want %v", err, ErrInvalidState)
			}
		})
	}
}
