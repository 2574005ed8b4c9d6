package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxTrialBalanceRepository struct {
	BaseRepository
}

func newPgxTrialBalanceRepository(pool *pgxpool.Pool) *PgxTrialBalanceRepository {
	return &PgxTrialBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TrialBalanceRepository = (*PgxTrialBalanceRepository)(nil)

// LoadTrialBalanceInputs reads accounts and posted movement in one REPEATABLE READ snapshot,
// so a post committing midway cannot be half-counted.
func (r *PgxTrialBalanceRepository) LoadTrialBalanceInputs(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalanceInputs, error) {
	tx, err := r.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	rows, err := tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY account_number;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to load accounts for trial balance", err)
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT l.account_number,
		       (e.fiscal_year, e.fiscal_period) = ($1, $2) AS current_period,
		       COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.status = 'POSTED'
		  AND (e.fiscal_year, e.fiscal_period) <= ($1, $2)
		GROUP BY l.account_number, current_period;
	`
	rows, err = tx.Query(ctx, query, key.FiscalYear, key.PeriodNumber)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to aggregate posted movement", err)
	}
	defer rows.Close()

	inputs := &domain.TrialBalanceInputs{
		Accounts: accounts,
		Prior:    make(map[string]domain.Movement),
		Current:  make(map[string]domain.Movement),
	}
	for rows.Next() {
		var number string
		var current bool
		var debit, credit decimal.Decimal
		if err := rows.Scan(&number, &current, &debit, &credit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan movement row", err)
		}
		m := domain.Movement{Debit: debit, Credit: credit}
		if current {
			inputs.Current[number] = m
		} else {
			inputs.Prior[number] = m
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating movement rows", err)
	}
	return inputs, nil
}

func (r *PgxTrialBalanceRepository) SaveTrialBalance(ctx context.Context, tb domain.TrialBalance) error {
	payload, err := json.Marshal(tb)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO trial_balance_snapshots
			(fiscal_year, fiscal_period, is_balanced, total_closing_debit, total_closing_credit, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fiscal_year, fiscal_period) DO UPDATE SET
			is_balanced = EXCLUDED.is_balanced,
			total_closing_debit = EXCLUDED.total_closing_debit,
			total_closing_credit = EXCLUDED.total_closing_credit,
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at
		WHERE trial_balance_snapshots.generated_at <= EXCLUDED.generated_at;
	`
	_, err = r.Pool.Exec(ctx, query,
		tb.FiscalYear, tb.FiscalPeriod, tb.IsBalanced, tb.TotalClosingDebit, tb.TotalClosingCredit, payload, tb.GeneratedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save trial balance "+tb.Key().String(), err)
	}
	return nil
}

func (r *PgxTrialBalanceRepository) FindTrialBalance(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, error) {
	var payload []byte
	err := r.Pool.QueryRow(ctx,
		`SELECT payload FROM trial_balance_snapshots WHERE fiscal_year = $1 AND fiscal_period = $2;`,
		key.FiscalYear, key.PeriodNumber).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: trial balance %s", apperrors.ErrNotFound, key)
		}
		return nil, apperrors.NewAppError(500, "failed to load trial balance "+key.String(), err)
	}
	var tb domain.TrialBalance
	if err := json.Unmarshal(payload, &tb); err != nil {
		return nil, fmt.Errorf("decoding trial balance %s: %w", key, err)
	}
	return &tb, nil
}
