package services

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
)

// PeriodGateSvc answers whether dates and periods accept postings.
type PeriodGateSvc interface {
	// PeriodStatus returns the status of the period containing date.
	PeriodStatus(ctx context.Context, date time.Time) (domain.PeriodStatus, error)

	// EnsureDateOpen fails unless date lies inside an open period.
	EnsureDateOpen(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error)

	// EnsurePeriodOpen fails unless the period exists and is open.
	EnsurePeriodOpen(ctx context.Context, key domain.PeriodKey) error
}

// PeriodAdminSvc manages the period lifecycle.
type PeriodAdminSvc interface {
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, actor domain.Actor) (*domain.FinancialPeriod, error)
	ClosePeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error
	LockPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error
	ReopenPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error
	ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error)
}

// PeriodSvcFacade combines all period-related service interfaces
type PeriodSvcFacade interface {
	PeriodGateSvc
	PeriodAdminSvc
}
