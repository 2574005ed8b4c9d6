package repositories

import (
	"context"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// TrialBalanceRepository reads posted ledger data and stores derived snapshots.
type TrialBalanceRepository interface {
	// LoadTrialBalanceInputs reads accounts and posted movement for the period from a single
	// consistent snapshot. Only committed, posted data is visible.
	LoadTrialBalanceInputs(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalanceInputs, error)

	// SaveTrialBalance upserts the snapshot for its period.
	SaveTrialBalance(ctx context.Context, tb domain.TrialBalance) error

	// FindTrialBalance returns the stored snapshot, or apperrors.ErrNotFound.
	FindTrialBalance(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, error)
}
