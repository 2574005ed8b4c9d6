package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// PeriodReader defines read operations for fiscal periods
type PeriodReader interface {
	FindPeriod(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error)

	// FindPeriodByDate returns the period whose date range contains date, or apperrors.ErrNotFound.
	FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error)

	// ListPeriods lists periods ordered by (year, period). fiscalYear 0 lists all years.
	ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error)
}

// PeriodWriter defines write operations for fiscal periods
type PeriodWriter interface {
	// SavePeriod persists a new period. Returns apperrors.ErrDuplicate if the key exists.
	SavePeriod(ctx context.Context, period domain.FinancialPeriod) error

	// UpdatePeriodStatus moves a period from one status to another, stamping the actor.
	// Returns apperrors.ErrStaleState if the period is not in from.
	UpdatePeriodStatus(ctx context.Context, key domain.PeriodKey, from, to domain.PeriodStatus, actorID string, at time.Time) error
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
