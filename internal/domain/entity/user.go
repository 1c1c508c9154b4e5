package entity

import "time"

// User is an authenticated identity known to the upstream auth layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile carries the per-user attributes the workflows read: position tier
// for approver routing and the supervisor references maintained by the
// assignment directory.
type Profile struct {
	UserID          int64        `json:"user_id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Position        PositionTier `json:"position"`
	State           string       `json:"state"`
	Circuit         string       `json:"circuit"`
	SupervisorID    *int64       `json:"supervisor_id,omitempty"`
	FlsSupervisorID *int64       `json:"fls_supervisor_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// SupervisorFor returns the supervisor reference for the given channel.
func (p *Profile) SupervisorFor(channel Channel) *int64 {
	if channel == ChannelFls {
		return p.FlsSupervisorID
	}
	return p.SupervisorID
}
