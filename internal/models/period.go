package models

import "time"

// FinancialPeriod is a row of the financial_periods table.
type FinancialPeriod struct {
	FiscalYear   int        `db:"fiscal_year"`
	PeriodNumber int        `db:"period_number"`
	Name         string     `db:"name"`
	StartDate    time.Time  `db:"start_date"`
	EndDate      time.Time  `db:"end_date"`
	Status       string     `db:"status"`
	ClosedBy     *string    `db:"closed_by"`
	ClosedAt     *time.Time `db:"closed_at"`
	LockedBy     *string    `db:"locked_by"`
	LockedAt     *time.Time `db:"locked_at"`
	AuditFields
}
