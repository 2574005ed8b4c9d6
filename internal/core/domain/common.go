package domain

import "time"

// AuditFields records who created and last changed a ledger record.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// CreatedAudit stamps a new record as created and last updated by userID at t.
func CreatedAudit(userID string, t time.Time) AuditFields {
	return AuditFields{CreatedAt: t, CreatedBy: userID, LastUpdatedAt: t, LastUpdatedBy: userID}
}

// Touch marks the record as last changed by userID at t.
func (a *AuditFields) Touch(userID string, t time.Time) {
	a.LastUpdatedAt = t
	a.LastUpdatedBy = userID
}
