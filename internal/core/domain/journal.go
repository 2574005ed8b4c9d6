package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "DRAFT"
	StatusPending   EntryStatus = "PENDING"
	StatusApproved  EntryStatus = "APPROVED"
	StatusPosted    EntryStatus = "POSTED"
	StatusRejected  EntryStatus = "REJECTED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible from s.
func (s EntryStatus) IsTerminal() bool {
	return s == StatusPosted || s == StatusRejected || s == StatusCancelled
}

// EntryType classifies why a journal entry exists.
type EntryType string

const (
	EntryRegular   EntryType = "REGULAR"
	EntryAdjusting EntryType = "ADJUSTING"
	EntryClosing   EntryType = "CLOSING"
	EntryReversing EntryType = "REVERSING"
	EntryOpening   EntryType = "OPENING"
	EntryImport    EntryType = "IMPORT"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryRegular, EntryAdjusting, EntryClosing, EntryReversing, EntryOpening, EntryImport:
		return true
	}
	return false
}

// JournalEntry is a proposed or posted balanced set of debit and credit lines.
// Once Status is POSTED nothing on the entry or its lines changes again.
type JournalEntry struct {
	EntryID         string      `json:"entryID"`
	EntryNumber     string      `json:"entryNumber"`
	EntryDate       time.Time   `json:"entryDate"`
	FiscalYear      int         `json:"fiscalYear"`
	FiscalPeriod    int         `json:"fiscalPeriod"`
	EntryType       EntryType   `json:"entryType"`
	Status          EntryStatus `json:"status"`
	Description     string      `json:"description"`
	ReferenceNumber string      `json:"referenceNumber"` // entry number of the reversed entry, for reversals
	SourceSystem    string      `json:"sourceSystem"`
	BatchID         string      `json:"batchID"`
	Notes           string      `json:"notes"`

	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`

	ApprovedBy *string    `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	PostedBy   *string    `json:"postedBy,omitempty"`
	PostedAt   *time.Time `json:"postedAt,omitempty"`

	Lines []JournalEntryLine `json:"lines"`
	AuditFields
}

// JournalEntryLine is one debit or credit against a single account.
type JournalEntryLine struct {
	EntryID       string          `json:"entryID"`
	LineNumber    int             `json:"lineNumber"`
	AccountNumber string          `json:"accountNumber"`
	Description   string          `json:"description"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	ProjectCode   string          `json:"projectCode,omitempty"`
	CostCenter    string          `json:"costCenter,omitempty"`
	FundCode      string          `json:"fundCode,omitempty"`
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l JournalEntryLine) IsDebit() bool {
	return l.DebitAmount.IsPositive()
}

// Sums returns the debit and credit totals over the entry's lines.
func (e JournalEntry) Sums() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	return debits, credits
}

// AccountNumbers returns the distinct account numbers referenced by the lines, in line order.
func (e JournalEntry) AccountNumbers() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	out := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountNumber]; ok {
			continue
		}
		seen[l.AccountNumber] = struct{}{}
		out = append(out, l.AccountNumber)
	}
	return out
}

// Period returns the fiscal period the entry is booked to.
func (e JournalEntry) Period() PeriodKey {
	return PeriodKey{FiscalYear: e.FiscalYear, PeriodNumber: e.FiscalPeriod}
}

// Clone returns a deep copy so callers may mutate it without touching stored state.
func (e JournalEntry) Clone() JournalEntry {
	out := e
	out.Lines = append([]JournalEntryLine(nil), e.Lines...)
	if e.ApprovedBy != nil {
		v := *e.ApprovedBy
		out.ApprovedBy = &v
	}
	if e.ApprovedAt != nil {
		v := *e.ApprovedAt
		out.ApprovedAt = &v
	}
	if e.PostedBy != nil {
		v := *e.PostedBy
		out.PostedBy = &v
	}
	if e.PostedAt != nil {
		v := *e.PostedAt
		out.PostedAt = &v
	}
	return out
}

// ApprovalAction is the decision recorded on a pending entry.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "APPROVE"
	ActionReject  ApprovalAction = "REJECT"
)

// ApprovalRecord keeps every approve/reject decision made on an entry.
type ApprovalRecord struct {
	EntryID    string         `json:"entryID"`
	ApproverID string         `json:"approverID"`
	Action     ApprovalAction `json:"action"`
	Comments   string         `json:"comments"`
	ActionAt   time.Time      `json:"actionAt"`
}

// StatusChange describes a compare-and-set transition of an entry's status.
// Stores apply it only when the entry is still in From.
type StatusChange struct {
	EntryID  string
	From     EntryStatus
	To       EntryStatus
	ActorID  string
	At       time.Time
	Approval *ApprovalRecord
}
