package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerTx is the set of reads and writes available inside a posting transaction.
// Writes become visible only when the enclosing WithinTx returns nil.
type LedgerTx interface {
	// FindEntryForUpdate reads an entry with its lines and holds it against concurrent writers.
	FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindPeriodForShare reads a period and blocks status changes to it until commit.
	FindPeriodForShare(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error)

	// FindAccountsForUpdate reads and locks accounts in ascending number order.
	FindAccountsForUpdate(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error)

	// ApplyBalanceDelta adds delta to the account's running balance and returns the new balance.
	// Fails with apperrors.ErrAccountInactive or apperrors.ErrNotFound.
	ApplyBalanceDelta(ctx context.Context, accountNumber string, delta decimal.Decimal, actorID string, at time.Time) (decimal.Decimal, error)

	// UpdateEntryStatus is the in-transaction form of JournalWriter.UpdateEntryStatus.
	UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error
}

// UnitOfWork runs fn inside one atomic store transaction. If fn returns an error,
// or ctx is done before commit, nothing fn wrote is kept.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
