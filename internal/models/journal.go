package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID         string          `db:"entry_id"`
	EntryNumber     string          `db:"entry_number"`
	EntryDate       time.Time       `db:"entry_date"`
	FiscalYear      int             `db:"fiscal_year"`
	FiscalPeriod    int             `db:"fiscal_period"`
	EntryType       string          `db:"entry_type"`
	Status          string          `db:"status"`
	Description     string          `db:"description"`
	ReferenceNumber *string         `db:"reference_number"` // Nullable
	SourceSystem    *string         `db:"source_system"`    // Nullable
	BatchID         *string         `db:"batch_id"`         // Nullable
	Notes           *string         `db:"notes"`            // Nullable
	TotalDebits     decimal.Decimal `db:"total_debits"`
	TotalCredits    decimal.Decimal `db:"total_credits"`
	ApprovedBy      *string         `db:"approved_by"`
	ApprovedAt      *time.Time      `db:"approved_at"`
	PostedBy        *string         `db:"posted_by"`
	PostedAt        *time.Time      `db:"posted_at"`
	AuditFields
}

// JournalEntryLine is a row of the journal_entry_lines table.
type JournalEntryLine struct {
	EntryID       string          `db:"entry_id"`
	LineNumber    int             `db:"line_number"`
	AccountNumber string          `db:"account_number"`
	Description   *string         `db:"description"`
	DebitAmount   decimal.Decimal `db:"debit_amount"`
	CreditAmount  decimal.Decimal `db:"credit_amount"`
	ProjectCode   *string         `db:"project_code"`
	CostCenter    *string         `db:"cost_center"`
	FundCode      *string         `db:"fund_code"`
}

// EntryApproval is a row of the entry_approvals table.
type EntryApproval struct {
	EntryID    string    `db:"entry_id"`
	ApproverID string    `db:"approver_id"`
	Action     string    `db:"action"`
	Comments   *string   `db:"comments"`
	ActionAt   time.Time `db:"action_at"`
}
