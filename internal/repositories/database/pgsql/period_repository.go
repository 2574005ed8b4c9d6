package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ipsas_ledger/internal/models"
	"github.com/SscSPs/ipsas_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `fiscal_year, period_number, name, start_date, end_date, status,
	closed_by, closed_at, locked_by, locked_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (domain.FinancialPeriod, error) {
	var m models.FinancialPeriod
	err := row.Scan(
		&m.FiscalYear,
		&m.PeriodNumber,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.Status,
		&m.ClosedBy,
		&m.ClosedAt,
		&m.LockedBy,
		&m.LockedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.FinancialPeriod{}, err
	}
	return mapping.ToDomainPeriod(m), nil
}

func findPeriod(ctx context.Context, q querier, key domain.PeriodKey, lockClause string) (*domain.FinancialPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods WHERE fiscal_year = $1 AND period_number = $2 ` + lockClause + `;`
	p, err := scanPeriod(q.QueryRow(ctx, query, key.FiscalYear, key.PeriodNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, key)
		}
		return nil, apperrors.NewAppError(500, "failed to find period "+key.String(), err)
	}
	return &p, nil
}

func (r *PgxPeriodRepository) FindPeriod(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error) {
	return findPeriod(ctx, r.Pool, key, "")
}

func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods WHERE $1 BETWEEN start_date AND end_date LIMIT 1;`
	p, err := scanPeriod(r.Pool.QueryRow(ctx, query, domain.DateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no period contains %s", apperrors.ErrNotFound, date.Format(time.DateOnly))
		}
		return nil, apperrors.NewAppError(500, "failed to find period by date", err)
	}
	return &p, nil
}

func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods WHERE ($1 = 0 OR fiscal_year = $1) ORDER BY fiscal_year, period_number;`
	rows, err := r.Pool.Query(ctx, query, fiscalYear)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list periods", err)
	}
	defer rows.Close()

	periods := []domain.FinancialPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan period row", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.FinancialPeriod) error {
	m := mapping.ToModelPeriod(period)
	query := `
		INSERT INTO financial_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.FiscalYear,
		m.PeriodNumber,
		m.Name,
		m.StartDate,
		m.EndDate,
		m.Status,
		m.ClosedBy,
		m.ClosedAt,
		m.LockedBy,
		m.LockedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, period.Key())
		}
		return apperrors.NewAppError(500, "failed to save period "+period.Key().String(), err)
	}
	return nil
}

// UpdatePeriodStatus is a compare-and-set on the period status. Reopening clears the close stamp.
func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, key domain.PeriodKey, from, to domain.PeriodStatus, actorID string, at time.Time) error {
	query := `
		UPDATE financial_periods SET
			status    = $4,
			closed_by = CASE WHEN $4 = 'CLOSED' THEN $5 WHEN $4 = 'OPEN' THEN NULL ELSE closed_by END,
			closed_at = CASE WHEN $4 = 'CLOSED' THEN $6 WHEN $4 = 'OPEN' THEN NULL ELSE closed_at END,
			locked_by = CASE WHEN $4 = 'LOCKED' THEN $5 ELSE locked_by END,
			locked_at = CASE WHEN $4 = 'LOCKED' THEN $6 ELSE locked_at END,
			last_updated_by = $5,
			last_updated_at = $6
		WHERE fiscal_year = $1 AND period_number = $2 AND status = $3;
	`
	tag, err := r.Pool.Exec(ctx, query, key.FiscalYear, key.PeriodNumber, string(from), string(to), actorID, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update period "+key.String(), err)
	}
	if tag.RowsAffected() == 0 {
		current, err := r.FindPeriod(ctx, key)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: period %s is %s, not %s", apperrors.ErrStaleState, key, current.Status, from)
	}
	return nil
}
