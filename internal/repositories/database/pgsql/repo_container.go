package pgsql

import (
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerStore is the Postgres-backed ledger store.
type LedgerStore struct {
	*PgxAccountRepository
	*PgxJournalRepository
	*PgxPeriodRepository
	*PgxTrialBalanceRepository
	*PgxUnitOfWork
}

var _ portsrepo.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore builds every repository over one pool.
func NewLedgerStore(dbPool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{
		PgxAccountRepository:      newPgxAccountRepository(dbPool),
		PgxJournalRepository:      newPgxJournalRepository(dbPool),
		PgxPeriodRepository:       newPgxPeriodRepository(dbPool),
		PgxTrialBalanceRepository: newPgxTrialBalanceRepository(dbPool),
		PgxUnitOfWork:             newPgxUnitOfWork(dbPool),
	}
}

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.NewRepositoryProvider(NewLedgerStore(dbPool))
}
