package services

import (
	"context"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// TrialBalanceSvc derives trial balances from posted data.
type TrialBalanceSvc interface {
	// ComputeTrialBalance always recomputes from the store and refreshes the snapshot.
	// A result that does not foot is returned as *apperrors.ConsistencyError.
	ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error)

	// GetTrialBalance serves a cached snapshot when one exists and computes otherwise.
	GetTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error)

	// VerifyPeriod recomputes the period. For a closed or locked period it also compares the
	// result with any snapshot taken after the period closed; drift is a *apperrors.ConsistencyError.
	VerifyPeriod(ctx context.Context, period domain.FinancialPeriod) (*domain.TrialBalance, error)
}
