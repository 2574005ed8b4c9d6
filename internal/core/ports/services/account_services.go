package services

import (
	"context"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	// GetAccount retrieves a single account by number.
	GetAccount(ctx context.Context, accountNumber string, actor domain.Actor) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams, actor domain.Actor) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	// CreateAccount adds an account, deriving its normal balance from its type.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error)

	// DeactivateAccount stops an account from accepting new lines or postings.
	DeactivateAccount(ctx context.Context, accountNumber string, actor domain.Actor) error

	// DeleteAccount removes an account that no posted line references.
	DeleteAccount(ctx context.Context, accountNumber string, actor domain.Actor) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
