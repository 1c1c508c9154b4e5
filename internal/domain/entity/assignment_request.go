package entity

import "time"

// AssignmentRequest is a supervisor's proposal to become an inspector's
// primary supervisor. Requests are terminal once approved or rejected; at
// most one pending request may exist per inspector.
type AssignmentRequest struct {
	ID                     int64      `json:"id"`
	InspectorID            int64      `json:"inspector_id"`
	RequestingSupervisorID int64      `json:"requesting_supervisor_id"`
	Status                 string     `json:"status"`
	Notes                  string     `json:"notes,omitempty"`
	RequestedAt            time.Time  `json:"requested_at"`
	ProcessedAt            *time.Time `json:"processed_at,omitempty"`
	ProcessedBy            *int64     `json:"processed_by,omitempty"`
}

// Terminal returns true once the request has been approved or rejected.
func (r *AssignmentRequest) Terminal() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}
