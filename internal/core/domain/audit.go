package domain

import "time"

// AuditAction names a ledger state transition reported to the audit sink.
type AuditAction string

const (
	AuditEntryCreated  AuditAction = "entry.created"
	AuditEntryUpdated  AuditAction = "entry.updated"
	AuditEntrySubmit   AuditAction = "entry.submitted"
	AuditEntryApprove  AuditAction = "entry.approved"
	AuditEntryReject   AuditAction = "entry.rejected"
	AuditEntryPost     AuditAction = "entry.posted"
	AuditEntryCancel   AuditAction = "entry.cancelled"
	AuditEntryReverse  AuditAction = "entry.reversed"
	AuditPeriodCreate  AuditAction = "period.created"
	AuditPeriodClose   AuditAction = "period.closed"
	AuditPeriodLock    AuditAction = "period.locked"
	AuditPeriodReopen  AuditAction = "period.reopened"
	AuditAccountCreate AuditAction = "account.created"
	AuditAccountDeact  AuditAction = "account.deactivated"
	AuditAccountDelete AuditAction = "account.deleted"
)

// AuditEvent is an immutable fact about a transition.
type AuditEvent struct {
	ActorID  string         `json:"actorID"`
	Action   AuditAction    `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityID"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}
