package workflow

import "errors"

// Failure kinds reported by transition operations. Callers classify with
// errors.Is; the HTTP layer maps each kind to a distinct status code.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidState is returned when a transition is attempted from a
	// state that does not permit it.
	ErrInvalidState = errors.New("invalid state for transition")

	// ErrForbidden is returned when the actor lacks the role or
	// relationship the transition requires.
	ErrForbidden = errors.New("actor not permitted")

	// ErrInvalidRole is returned when a referenced party does not hold the
	// role the operation requires of them.
	ErrInvalidRole = errors.New("referenced user has wrong role")

	// ErrConflict is returned when the operation would duplicate existing
	// state, such as a second pending request for the same inspector.
	ErrConflict = errors.New("conflicting entity already exists")

	// ErrInvalidClaim is returned when voucher form data fails validation.
	ErrInvalidClaim = errors.New("invalid claim data")

	// ErrStorage wraps unexpected persistence failures.
	ErrStorage = errors.New("storage failure")
)
