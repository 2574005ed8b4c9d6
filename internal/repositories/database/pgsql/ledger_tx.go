package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxUnitOfWork runs posting transactions.
type PgxUnitOfWork struct {
	BaseRepository
}

func newPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UnitOfWork = (*PgxUnitOfWork)(nil)

// WithinTx commits only if fn succeeds. A ctx cancelled before commit aborts the transaction.
func (u *PgxUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer u.Rollback(ctx, tx)

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.Commit(ctx, tx)
}

type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (t *pgxLedgerTx) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, t.tx, entryID, "FOR UPDATE")
}

func (t *pgxLedgerTx) FindPeriodForShare(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error) {
	return findPeriod(ctx, t.tx, key, "FOR SHARE")
}

func (t *pgxLedgerTx) FindAccountsForUpdate(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error) {
	return findAccounts(ctx, t.tx, accountNumbers, "FOR UPDATE")
}

func (t *pgxLedgerTx) ApplyBalanceDelta(ctx context.Context, accountNumber string, delta decimal.Decimal, actorID string, at time.Time) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_number = $1 AND is_active
		RETURNING current_balance;
	`
	var balance decimal.Decimal
	err := t.tx.QueryRow(ctx, query, accountNumber, delta, at, actorID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, apperrors.NewAppError(500, "failed to update balance of account "+accountNumber, err)
	}

	var active bool
	err = t.tx.QueryRow(ctx, `SELECT is_active FROM accounts WHERE account_number = $1;`, accountNumber).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountNumber)
	}
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to read account "+accountNumber, err)
	}
	return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, accountNumber)
}

func (t *pgxLedgerTx) UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error {
	return updateEntryStatus(ctx, t.tx, change)
}
