package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err            error
		expectedStatus int
		expectedKind   string
	}{
		{workflow.ErrNotFound, http.StatusNotFound, "not_found"},
		{workflow.ErrForbidden, http.StatusForbidden, "forbidden"},
		{workflow.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{workflow.ErrConflict, http.StatusConflict, "conflict"},
		{workflow.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},
		{workflow.ErrInvalidClaim, http.StatusUnprocessableEntity, "invalid_claim"},
		{workflow.ErrStorage, http.StatusInternalServerError, "internal"},
		{errors.New("plain error"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.expectedKind+"/"+tt.err.Error(), func(t *testing.T) {
			status, kind := classify(tt.err)
			if status != tt.expectedStatus {
				t.Errorf("classify(%v) status = %d, want %d", tt.err, status, tt.expectedStatus)
			}
			if kind != tt.expectedKind {
				t.Errorf("classify(%v) kind = %q, want %q", tt.err, kind, tt.expectedKind)
			}
		})
	}
}

// Every failure kind must be distinguishable by clients: where two kinds
// share a status, their kind identifiers must still differ.
func TestClassify_KindsAreDistinct(t *testing.T) {
	kinds := []error{
		workflow.ErrNotFound,
		workflow.ErrForbidden,
		workflow.ErrInvalidState,
		workflow.ErrConflict,
		workflow.ErrInvalidRole,
		workflow.ErrInvalidClaim,
		workflow.ErrStorage,
	}

	seen := make(map[string]error, len(kinds))
	for _, err := range kinds {
		_, kind := classify(err)
		if prev, ok := seen[kind]; ok {
			t.Errorf("failure kinds %v and %v both classify as %q", prev, err, kind)
		}
		seen[kind] = err
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{workflow.ErrNotFound, http.StatusNotFound},
		{workflow.ErrForbidden, http.StatusForbidden},
		{workflow.ErrInvalidState, http.StatusConflict},
		{workflow.ErrConflict, http.StatusConflict},
		{workflow.ErrInvalidRole, http.StatusUnprocessableEntity},
		{workflow.ErrInvalidClaim, http.StatusUnprocessableEntity},
		{workflow.ErrStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.expected {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassify_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: voucher 7", workflow.ErrNotFound)
	status, kind := classify(wrapped)
	if status != http.StatusNotFound {
		t.Errorf("classify(wrapped) status = %d, want %d", status, http.StatusNotFound)
	}
	if kind != "not_found" {
		t.Errorf("classify(wrapped) kind = %q, want %q", kind, "not_found")
	}
}
