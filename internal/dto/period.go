package dto

import (
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// CreatePeriodRequest defines a new fiscal period.
type CreatePeriodRequest struct {
	FiscalYear   int       `json:"fiscalYear" binding:"required,min=1900,max=9999"`
	PeriodNumber int       `json:"periodNumber" binding:"required,min=1,max=12"`
	Name         string    `json:"name" binding:"max=50"`
	StartDate    time.Time `json:"startDate" binding:"required"`
	EndDate      time.Time `json:"endDate" binding:"required"`
}

// PeriodResponse defines the data returned for a fiscal period.
type PeriodResponse struct {
	FiscalYear   int                 `json:"fiscalYear"`
	PeriodNumber int                 `json:"periodNumber"`
	Name         string              `json:"name"`
	StartDate    time.Time           `json:"startDate"`
	EndDate      time.Time           `json:"endDate"`
	Status       domain.PeriodStatus `json:"status"`
	ClosedBy     *string             `json:"closedBy,omitempty"`
	ClosedAt     *time.Time          `json:"closedAt,omitempty"`
	LockedBy     *string             `json:"lockedBy,omitempty"`
	LockedAt     *time.Time          `json:"lockedAt,omitempty"`
}

// ToPeriodResponse converts a domain.FinancialPeriod to PeriodResponse DTO.
func ToPeriodResponse(p *domain.FinancialPeriod) PeriodResponse {
	return PeriodResponse{
		FiscalYear:   p.FiscalYear,
		PeriodNumber: p.PeriodNumber,
		Name:         p.Name,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Status:       p.Status,
		ClosedBy:     p.ClosedBy,
		ClosedAt:     p.ClosedAt,
		LockedBy:     p.LockedBy,
		LockedAt:     p.LockedAt,
	}
}

// ToListPeriodResponse converts periods to their DTOs.
func ToListPeriodResponse(periods []domain.FinancialPeriod) []PeriodResponse {
	out := make([]PeriodResponse, len(periods))
	for i := range periods {
		out[i] = ToPeriodResponse(&periods[i])
	}
	return out
}

// PeriodStatusParams is the query for the period status lookup.
type PeriodStatusParams struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// PeriodStatusResponse reports the status of the period containing a date.
type PeriodStatusResponse struct {
	Date   string              `json:"date"`
	Status domain.PeriodStatus `json:"status"`
}
