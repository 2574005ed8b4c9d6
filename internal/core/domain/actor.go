package domain

// Role is the coarse permission group an actor belongs to.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAccountant Role = "accountant"
	RoleAuditor    Role = "auditor"
	RoleViewer     Role = "viewer"
)

// Capability is an action that can be granted to a role.
type Capability string

const (
	CapCreate      Capability = "create"
	CapEdit        Capability = "edit"
	CapView        Capability = "view"
	CapDelete      Capability = "delete"
	CapApprove     Capability = "approve"
	CapPost        Capability = "post"
	CapAudit       Capability = "audit"
	CapClosePeriod Capability = "close_period"
	CapLockPeriod  Capability = "lock_period"
	CapReopen      Capability = "reopen_period"
	CapManageCOA   Capability = "manage_accounts"
	CapManagePer   Capability = "manage_periods"
)

var capabilities = map[Role]map[Capability]bool{
	RoleManager: {
		CapCreate: true, CapEdit: true, CapView: true, CapApprove: true, CapClosePeriod: true,
	},
	RoleAccountant: {
		CapCreate: true, CapEdit: true, CapView: true, CapDelete: true, CapPost: true,
	},
	RoleAuditor: {
		CapView: true, CapAudit: true,
	},
	RoleViewer: {
		CapView: true,
	},
}

// Can reports whether role r holds capability c. Admins hold every capability.
func (r Role) Can(c Capability) bool {
	if r == RoleAdmin {
		return true
	}
	return capabilities[r][c]
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	if r == RoleAdmin {
		return true
	}
	_, ok := capabilities[r]
	return ok
}

// Actor is the identity on whose behalf a ledger operation runs.
type Actor struct {
	UserID string `json:"userID"`
	Role   Role   `json:"role"`
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c Capability) bool {
	return a.Role.Can(c)
}
