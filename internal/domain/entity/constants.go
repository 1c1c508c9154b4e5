package entity

// Role is the authorization role of a user.
type Role string

const (
	RoleInspector    Role = "inspector"
	RoleSupervisor   Role = "supervisor"
	RoleFleetManager Role = "fleet_manager"
	RoleAdmin        Role = "admin"
)

var validRoles = map[Role]bool{
	RoleInspector:    true,
	RoleSupervisor:   true,
	RoleFleetManager: true,
	RoleAdmin:        true,
}

// IsValid returns true if the role is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// SupervisorCapable returns true if users with this role may be assigned as
// an inspector's supervisor (either channel).
func (r Role) SupervisorCapable() bool {
	return r == RoleSupervisor || r == RoleFleetManager || r == RoleAdmin
}

// AdminAuthority returns true if users with this role may terminate
// assignment requests.
func (r Role) AdminAuthority() bool {
	return r == RoleAdmin || r == RoleFleetManager
}

// PositionTier is the enumerated position of an inspector. It replaces the
// free-text position labels from the legacy data and drives which approver
// channel a submitted voucher is routed to.
type PositionTier string

const (
	TierInspector PositionTier = "inspector"
	TierFLS       PositionTier = "fls"
	TierDDM       PositionTier = "ddm"
	TierDM        PositionTier = "dm"
)

var validTiers = map[PositionTier]bool{
	TierInspector: true,
	TierFLS:       true,
	TierDDM:       true,
	TierDM:        true,
}

// IsValid returns true if the tier is a known position tier.
func (t PositionTier) IsValid() bool {
	return validTiers[t]
}

// Channel identifies which supervisor reference on a profile an operation
// acts on.
type Channel string

const (
	ChannelPrimary Channel = "primary"
	ChannelFls     Channel = "fls"
)

// IsValid returns true if the channel is a known supervisor channel.
func (c Channel) IsValid() bool {
	return c == ChannelPrimary || c == ChannelFls
}

// Voucher statuses.
const (
	VoucherStatusDraft              = "draft"
	VoucherStatusSubmitted          = "submitted"
	VoucherStatusSupervisorApproved = "supervisor_approved"
	VoucherStatusFleetApproved      = "fleet_approved"
	VoucherStatusRejected           = "rejected"
)

// Assignment request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)
