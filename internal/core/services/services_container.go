package services

import (
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
)

// NewServiceContainer wires the ledger services with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, locker ports.PostingLocker, opts ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, opts...)

	// Period controller first: the validator consults its gates
	container.Period = NewPeriodService(repos.PeriodRepo, repos.JournalRepo, locker, opts...)

	validator := NewValidatorService(repos.AccountRepo, container.Period, opts...)
	poster := NewPostingService(repos.JournalRepo, repos.UnitOfWork, locker, opts...)
	container.Journal = NewJournalService(repos.JournalRepo, repos.PeriodRepo, locker, validator, poster, opts...)

	container.TrialBalance = NewTrialBalanceService(repos.TrialBalanceRepo, opts...)
	container.Ledger = NewLedgerService(container.Journal, container.TrialBalance, container.Period)

	return container
}
