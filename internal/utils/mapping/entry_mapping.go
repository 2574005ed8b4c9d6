package mapping

import (
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/models"
)

// ToModelEntry converts a domain JournalEntry header to its model row. Lines are mapped separately.
func ToModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		EntryNumber:     d.EntryNumber,
		EntryDate:       domain.DateOnly(d.EntryDate),
		FiscalYear:      d.FiscalYear,
		FiscalPeriod:    d.FiscalPeriod,
		EntryType:       string(d.EntryType),
		Status:          string(d.Status),
		Description:     d.Description,
		ReferenceNumber: nullable(d.ReferenceNumber),
		SourceSystem:    nullable(d.SourceSystem),
		BatchID:         nullable(d.BatchID),
		Notes:           nullable(d.Notes),
		TotalDebits:     d.TotalDebits,
		TotalCredits:    d.TotalCredits,
		ApprovedBy:      d.ApprovedBy,
		ApprovedAt:      d.ApprovedAt,
		PostedBy:        d.PostedBy,
		PostedAt:        d.PostedAt,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntry converts a model row and its lines to a domain JournalEntry.
func ToDomainEntry(m models.JournalEntry, lines []models.JournalEntryLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:         m.EntryID,
		EntryNumber:     m.EntryNumber,
		EntryDate:       domain.DateOnly(m.EntryDate),
		FiscalYear:      m.FiscalYear,
		FiscalPeriod:    m.FiscalPeriod,
		EntryType:       domain.EntryType(m.EntryType),
		Status:          domain.EntryStatus(m.Status),
		Description:     m.Description,
		ReferenceNumber: deref(m.ReferenceNumber),
		SourceSystem:    deref(m.SourceSystem),
		BatchID:         deref(m.BatchID),
		Notes:           deref(m.Notes),
		TotalDebits:     m.TotalDebits,
		TotalCredits:    m.TotalCredits,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		PostedBy:        m.PostedBy,
		PostedAt:        m.PostedAt,
		Lines:           ToDomainLineSlice(lines),
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLine converts a domain JournalEntryLine to a model JournalEntryLine
func ToModelLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		EntryID:       d.EntryID,
		LineNumber:    d.LineNumber,
		AccountNumber: d.AccountNumber,
		Description:   nullable(d.Description),
		DebitAmount:   d.DebitAmount,
		CreditAmount:  d.CreditAmount,
		ProjectCode:   nullable(d.ProjectCode),
		CostCenter:    nullable(d.CostCenter),
		FundCode:      nullable(d.FundCode),
	}
}

// ToDomainLine converts a model JournalEntryLine to a domain JournalEntryLine
func ToDomainLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		EntryID:       m.EntryID,
		LineNumber:    m.LineNumber,
		AccountNumber: m.AccountNumber,
		Description:   deref(m.Description),
		DebitAmount:   m.DebitAmount,
		CreditAmount:  m.CreditAmount,
		ProjectCode:   deref(m.ProjectCode),
		CostCenter:    deref(m.CostCenter),
		FundCode:      deref(m.FundCode),
	}
}

// ToDomainLineSlice converts a slice of model lines to domain lines
func ToDomainLineSlice(ms []models.JournalEntryLine) []domain.JournalEntryLine {
	ds := make([]domain.JournalEntryLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLine(m)
	}
	return ds
}

// ToDomainApproval converts a model EntryApproval to a domain ApprovalRecord
func ToDomainApproval(m models.EntryApproval) domain.ApprovalRecord {
	return domain.ApprovalRecord{
		EntryID:    m.EntryID,
		ApproverID: m.ApproverID,
		Action:     domain.ApprovalAction(m.Action),
		Comments:   deref(m.Comments),
		ActionAt:   m.ActionAt,
	}
}

// ToModelApproval converts a domain ApprovalRecord to a model EntryApproval
func ToModelApproval(d domain.ApprovalRecord) models.EntryApproval {
	return models.EntryApproval{
		EntryID:    d.EntryID,
		ApproverID: d.ApproverID,
		Action:     string(d.Action),
		Comments:   nullable(d.Comments),
		ActionAt:   d.ActionAt,
	}
}
