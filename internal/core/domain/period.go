package domain

import (
	"fmt"
	"time"
)

// PeriodStatus gates whether a fiscal period accepts postings.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
	PeriodLocked PeriodStatus = "LOCKED"
)

// PeriodKey identifies a fiscal period.
type PeriodKey struct {
	FiscalYear   int `json:"fiscalYear"`
	PeriodNumber int `json:"periodNumber"`
}

func (k PeriodKey) String() string {
	return fmt.Sprintf("%d-%02d", k.FiscalYear, k.PeriodNumber)
}

// Before reports whether k is strictly earlier than other.
func (k PeriodKey) Before(other PeriodKey) bool {
	if k.FiscalYear != other.FiscalYear {
		return k.FiscalYear < other.FiscalYear
	}
	return k.PeriodNumber < other.PeriodNumber
}

// FinancialPeriod is one of the twelve sub-divisions of a fiscal year.
// StartDate and EndDate are inclusive calendar days.
type FinancialPeriod struct {
	FiscalYear   int          `json:"fiscalYear"`
	PeriodNumber int          `json:"periodNumber"`
	Name         string       `json:"name"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	Status       PeriodStatus `json:"status"`
	ClosedBy     *string      `json:"closedBy,omitempty"`
	ClosedAt     *time.Time   `json:"closedAt,omitempty"`
	LockedBy     *string      `json:"lockedBy,omitempty"`
	LockedAt     *time.Time   `json:"lockedAt,omitempty"`
	AuditFields
}

// Key returns the period's identity.
func (p FinancialPeriod) Key() PeriodKey {
	return PeriodKey{FiscalYear: p.FiscalYear, PeriodNumber: p.PeriodNumber}
}

// Contains reports whether the calendar day of t lies in [StartDate, EndDate].
func (p FinancialPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
