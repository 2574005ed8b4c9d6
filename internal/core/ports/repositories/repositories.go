package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo      AccountRepositoryFacade
	JournalRepo      JournalRepositoryFacade
	PeriodRepo       PeriodRepositoryFacade
	TrialBalanceRepo TrialBalanceRepository
	UnitOfWork       UnitOfWork
}

// LedgerStore is durable storage with atomic multi-row commit.
type LedgerStore interface {
	AccountRepositoryFacade
	JournalRepositoryFacade
	PeriodRepositoryFacade
	TrialBalanceRepository
	UnitOfWork
}

// NewRepositoryProvider exposes a single LedgerStore through the provider fields.
func NewRepositoryProvider(store LedgerStore) RepositoryProvider {
	return RepositoryProvider{
		AccountRepo:      store,
		JournalRepo:      store,
		PeriodRepo:       store,
		TrialBalanceRepo: store,
		UnitOfWork:       store,
	}
}
