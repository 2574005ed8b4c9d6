package mapping

import (
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/models"
)

// ToModelPeriod converts a domain FinancialPeriod to a model FinancialPeriod
func ToModelPeriod(d domain.FinancialPeriod) models.FinancialPeriod {
	return models.FinancialPeriod{
		FiscalYear:   d.FiscalYear,
		PeriodNumber: d.PeriodNumber,
		Name:         d.Name,
		StartDate:    domain.DateOnly(d.StartDate),
		EndDate:      domain.DateOnly(d.EndDate),
		Status:       string(d.Status),
		ClosedBy:     d.ClosedBy,
		ClosedAt:     d.ClosedAt,
		LockedBy:     d.LockedBy,
		LockedAt:     d.LockedAt,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPeriod converts a model FinancialPeriod to a domain FinancialPeriod
func ToDomainPeriod(m models.FinancialPeriod) domain.FinancialPeriod {
	return domain.FinancialPeriod{
		FiscalYear:   m.FiscalYear,
		PeriodNumber: m.PeriodNumber,
		Name:         m.Name,
		StartDate:    domain.DateOnly(m.StartDate),
		EndDate:      domain.DateOnly(m.EndDate),
		Status:       domain.PeriodStatus(m.Status),
		ClosedBy:     m.ClosedBy,
		ClosedAt:     m.ClosedAt,
		LockedBy:     m.LockedBy,
		LockedAt:     m.LockedAt,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPeriodSlice converts a slice of model periods to domain periods
func ToDomainPeriodSlice(ms []models.FinancialPeriod) []domain.FinancialPeriod {
	ds := make([]domain.FinancialPeriod, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPeriod(m)
	}
	return ds
}
