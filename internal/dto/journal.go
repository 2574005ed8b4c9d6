package dto

import (
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryLineRequest is one proposed debit or credit line.
type EntryLineRequest struct {
	AccountNumber string          `json:"accountNumber" binding:"required"`
	Description   string          `json:"description"`
	DebitAmount   decimal.Decimal `json:"debitAmount" binding:"money2"`
	CreditAmount  decimal.Decimal `json:"creditAmount" binding:"money2"`
	ProjectCode   string          `json:"projectCode"`
	CostCenter    string          `json:"costCenter"`
	FundCode      string          `json:"fundCode"`
}

// EntryRequest carries the authored fields of a draft journal entry.
// Structural and monetary rules are enforced by the ledger validator, not by binding tags.
type EntryRequest struct {
	EntryDate    time.Time          `json:"entryDate" binding:"required"`
	FiscalYear   int                `json:"fiscalYear" binding:"required"`
	FiscalPeriod int                `json:"fiscalPeriod"`
	EntryType    domain.EntryType   `json:"entryType" binding:"omitempty,oneof=REGULAR ADJUSTING CLOSING OPENING IMPORT"`
	Description  string             `json:"description" binding:"max=1000"`
	SourceSystem string             `json:"sourceSystem"`
	BatchID      string             `json:"batchID"`
	Notes        string             `json:"notes"`
	Lines        []EntryLineRequest `json:"lines" binding:"dive"`
}

// ToDomainLines numbers the request lines from 1 in the order given.
func (r EntryRequest) ToDomainLines(entryID string) []domain.JournalEntryLine {
	lines := make([]domain.JournalEntryLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.JournalEntryLine{
			EntryID:       entryID,
			LineNumber:    i + 1,
			AccountNumber: l.AccountNumber,
			Description:   l.Description,
			DebitAmount:   l.DebitAmount,
			CreditAmount:  l.CreditAmount,
			ProjectCode:   l.ProjectCode,
			CostCenter:    l.CostCenter,
			FundCode:      l.FundCode,
		}
	}
	return lines
}

// ToCandidate builds an unsaved entry for validation only.
func (r EntryRequest) ToCandidate() domain.JournalEntry {
	entryType := r.EntryType
	if entryType == "" {
		entryType = domain.EntryRegular
	}
	return domain.JournalEntry{
		EntryDate:    r.EntryDate,
		FiscalYear:   r.FiscalYear,
		FiscalPeriod: r.FiscalPeriod,
		EntryType:    entryType,
		Status:       domain.StatusDraft,
		Description:  r.Description,
		SourceSystem: r.SourceSystem,
		BatchID:      r.BatchID,
		Notes:        r.Notes,
		Lines:        r.ToDomainLines(""),
	}
}

// ApproveEntryRequest records an approver's decision on a pending entry.
type ApproveEntryRequest struct {
	Decision domain.ApprovalAction `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comments string                `json:"comments" binding:"max=1000"`
}

// CancelEntryRequest carries the reason for cancelling an entry.
type CancelEntryRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ReverseEntryRequest names the date the reversing entry is booked on.
type ReverseEntryRequest struct {
	ReverseDate time.Time `json:"reverseDate" binding:"required"`
	Description string    `json:"description"`
}

// EntryLineResponse defines the data returned for a journal entry line.
type EntryLineResponse struct {
	LineNumber    int             `json:"lineNumber"`
	AccountNumber string          `json:"accountNumber"`
	Description   string          `json:"description"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	ProjectCode   string          `json:"projectCode,omitempty"`
	CostCenter    string          `json:"costCenter,omitempty"`
	FundCode      string          `json:"fundCode,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID         string              `json:"entryID"`
	EntryNumber     string              `json:"entryNumber"`
	EntryDate       time.Time           `json:"entryDate"`
	FiscalYear      int                 `json:"fiscalYear"`
	FiscalPeriod    int                 `json:"fiscalPeriod"`
	EntryType       domain.EntryType    `json:"entryType"`
	Status          domain.EntryStatus  `json:"status"`
	Description     string              `json:"description"`
	ReferenceNumber string              `json:"referenceNumber,omitempty"`
	SourceSystem    string              `json:"sourceSystem,omitempty"`
	BatchID         string              `json:"batchID,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	TotalDebits     decimal.Decimal     `json:"totalDebits"`
	TotalCredits    decimal.Decimal     `json:"totalCredits"`
	ApprovedBy      *string             `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `json:"approvedAt,omitempty"`
	PostedBy        *string             `json:"postedBy,omitempty"`
	PostedAt        *time.Time          `json:"postedAt,omitempty"`
	Lines           []EntryLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"createdAt"`
	CreatedBy       string              `json:"createdBy"`
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineResponse{
			LineNumber:    l.LineNumber,
			AccountNumber: l.AccountNumber,
			Description:   l.Description,
			DebitAmount:   l.DebitAmount,
			CreditAmount:  l.CreditAmount,
			ProjectCode:   l.ProjectCode,
			CostCenter:    l.CostCenter,
			FundCode:      l.FundCode,
		}
	}
	return EntryResponse{
		EntryID:         e.EntryID,
		EntryNumber:     e.EntryNumber,
		EntryDate:       e.EntryDate,
		FiscalYear:      e.FiscalYear,
		FiscalPeriod:    e.FiscalPeriod,
		EntryType:       e.EntryType,
		Status:          e.Status,
		Description:     e.Description,
		ReferenceNumber: e.ReferenceNumber,
		SourceSystem:    e.SourceSystem,
		BatchID:         e.BatchID,
		Notes:           e.Notes,
		TotalDebits:     e.TotalDebits,
		TotalCredits:    e.TotalCredits,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		PostedBy:        e.PostedBy,
		PostedAt:        e.PostedAt,
		Lines:           lines,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
}

// StatusResponse is returned by workflow transitions.
type StatusResponse struct {
	EntryID string             `json:"entryID"`
	Status  domain.EntryStatus `json:"status"`
}

// ValidationResponse is returned by the validate endpoint when the candidate passes.
type ValidationResponse struct {
	Valid        bool            `json:"valid"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
}
