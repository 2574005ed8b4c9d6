package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts
type AccountReader interface {
	// FindAccountByNumber retrieves a single account. Returns apperrors.ErrNotFound if absent.
	FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// FindAccountsByNumbers retrieves the accounts that exist among the given numbers, keyed by number.
	FindAccountsByNumbers(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by account number.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for the chart of accounts
type AccountWriter interface {
	// SaveAccount persists a new account. Returns apperrors.ErrDuplicate if the number is taken.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountNumber string, userID string, now time.Time) error

	// DeleteAccount removes an account. Returns apperrors.ErrReferenced if any journal line references it,
	// posted or not.
	DeleteAccount(ctx context.Context, accountNumber string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
