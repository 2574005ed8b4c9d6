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

const entryColumns = `entry_id, entry_number, entry_date, fiscal_year, fiscal_period, entry_type, status,
	description, reference_number, source_system, batch_id, notes, total_debits, total_credits,
	approved_by, approved_at, posted_by, posted_at, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `entry_id, line_number, account_number, description, debit_amount, credit_amount,
	project_code, cost_center, fund_code`

type PgxJournalRepository struct {
	BaseRepository
}

func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntryHeader(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.FiscalYear,
		&m.FiscalPeriod,
		&m.EntryType,
		&m.Status,
		&m.Description,
		&m.ReferenceNumber,
		&m.SourceSystem,
		&m.BatchID,
		&m.Notes,
		&m.TotalDebits,
		&m.TotalCredits,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.PostedBy,
		&m.PostedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// findEntry loads a header and its lines. lockClause is appended to the header query.
func findEntry(ctx context.Context, q querier, entryID, lockClause string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1 ` + lockClause + `;`
	header, err := scanEntryHeader(q.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, apperrors.NewAppError(500, "failed to find entry "+entryID, err)
	}
	lines, err := findLines(ctx, q, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainEntry(header, lines[entryID])
	return &entry, nil
}

func findLines(ctx context.Context, q querier, entryIDs []string) (map[string][]models.JournalEntryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_entry_lines WHERE entry_id = ANY($1) ORDER BY entry_id, line_number;`
	rows, err := q.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entry lines", err)
	}
	defer rows.Close()

	out := make(map[string][]models.JournalEntryLine, len(entryIDs))
	for rows.Next() {
		var l models.JournalEntryLine
		if err := rows.Scan(
			&l.EntryID,
			&l.LineNumber,
			&l.AccountNumber,
			&l.Description,
			&l.DebitAmount,
			&l.CreditAmount,
			&l.ProjectCode,
			&l.CostCenter,
			&l.FundCode,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry line", err)
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry lines", err)
	}
	return out, nil
}

// FindEntryByID retrieves an entry with its lines ordered by line number.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, r.Pool, entryID, "")
}

func (r *PgxJournalRepository) ListApprovals(ctx context.Context, entryID string) ([]domain.ApprovalRecord, error) {
	query := `
		SELECT entry_id, approver_id, action, comments, action_at
		FROM entry_approvals
		WHERE entry_id = $1
		ORDER BY action_at, approval_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query approvals for entry "+entryID, err)
	}
	defer rows.Close()

	records := []domain.ApprovalRecord{}
	for rows.Next() {
		var m models.EntryApproval
		if err := rows.Scan(&m.EntryID, &m.ApproverID, &m.Action, &m.Comments, &m.ActionAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan approval row", err)
		}
		records = append(records, mapping.ToDomainApproval(m))
	}
	return records, rows.Err()
}

func (r *PgxJournalRepository) FindEntriesByReference(ctx context.Context, referenceNumber string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE reference_number = $1 ORDER BY entry_number;`
	rows, err := r.Pool.Query(ctx, query, referenceNumber)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries by reference "+referenceNumber, err)
	}
	var headers []models.JournalEntry
	for rows.Next() {
		h, err := scanEntryHeader(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}
	if len(headers) == 0 {
		return []domain.JournalEntry{}, nil
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := findLines(ctx, r.Pool, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		out[i] = mapping.ToDomainEntry(h, lines[h.EntryID])
	}
	return out, nil
}

func (r *PgxJournalRepository) CountNonTerminalEntries(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM journal_entries
		WHERE entry_date BETWEEN $1 AND $2
		  AND status NOT IN ('POSTED', 'REJECTED', 'CANCELLED');
	`
	var n int
	if err := r.Pool.QueryRow(ctx, query, domain.DateOnly(start), domain.DateOnly(end)).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count open entries", err)
	}
	return n, nil
}

// SaveEntry inserts a header and its lines in one transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`
	_, err = tx.Exec(ctx, query,
		m.EntryID,
		m.EntryNumber,
		m.EntryDate,
		m.FiscalYear,
		m.FiscalPeriod,
		m.EntryType,
		m.Status,
		m.Description,
		m.ReferenceNumber,
		m.SourceSystem,
		m.BatchID,
		m.Notes,
		m.TotalDebits,
		m.TotalCredits,
		m.ApprovedBy,
		m.ApprovedAt,
		m.PostedBy,
		m.PostedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("%w: entry %s already exists", apperrors.ErrDuplicate, entry.EntryID)
		}
		return apperrors.NewAppError(500, "failed to insert entry "+entry.EntryID, err)
	}
	if err := insertLines(ctx, tx, entry.Lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalEntryLine) error {
	batch := &pgx.Batch{}
	query := `INSERT INTO journal_entry_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	for _, l := range lines {
		m := mapping.ToModelLine(l)
		batch.Queue(query,
			m.EntryID,
			m.LineNumber,
			m.AccountNumber,
			m.Description,
			m.DebitAmount,
			m.CreditAmount,
			m.ProjectCode,
			m.CostCenter,
			m.FundCode,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if pgCode(err) == pgForeignKeyViolation {
				return fmt.Errorf("%w: line references an unknown account", apperrors.ErrValidation)
			}
			return apperrors.NewAppError(500, "failed to insert entry line", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close line batch", err)
	}
	return nil
}

// ReplaceDraft rewrites a draft's header and lines. The header row is locked first so a
// concurrent submit cannot interleave.
func (r *PgxJournalRepository) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`, entry.EntryID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entry.EntryID)
		}
		return apperrors.NewAppError(500, "failed to lock entry "+entry.EntryID, err)
	}
	if domain.EntryStatus(status) != domain.StatusDraft {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrStaleState, entry.EntryID, status)
	}

	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries SET
			entry_date = $2, fiscal_year = $3, fiscal_period = $4, entry_type = $5, description = $6,
			source_system = $7, batch_id = $8, notes = $9, total_debits = $10, total_credits = $11,
			last_updated_at = $12, last_updated_by = $13
		WHERE entry_id = $1;
	`
	_, err = tx.Exec(ctx, query,
		m.EntryID,
		m.EntryDate,
		m.FiscalYear,
		m.FiscalPeriod,
		m.EntryType,
		m.Description,
		m.SourceSystem,
		m.BatchID,
		m.Notes,
		m.TotalDebits,
		m.TotalCredits,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update entry "+entry.EntryID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1;`, entry.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to clear lines of entry "+entry.EntryID, err)
	}
	if err := insertLines(ctx, tx, entry.Lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateEntryStatus applies a compare-and-set status change and records any approval.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := updateEntryStatus(ctx, tx, change); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func updateEntryStatus(ctx context.Context, q querier, change domain.StatusChange) error {
	query := `
		UPDATE journal_entries SET
			status = $3,
			approved_by = CASE WHEN $3 = 'APPROVED' THEN $4 ELSE approved_by END,
			approved_at = CASE WHEN $3 = 'APPROVED' THEN $5 ELSE approved_at END,
			posted_by   = CASE WHEN $3 = 'POSTED' THEN $4 ELSE posted_by END,
			posted_at   = CASE WHEN $3 = 'POSTED' THEN $5 ELSE posted_at END,
			last_updated_at = $5,
			last_updated_by = $4
		WHERE entry_id = $1 AND status = $2;
	`
	tag, err := q.Exec(ctx, query, change.EntryID, string(change.From), string(change.To), change.ActorID, change.At)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of entry "+change.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := q.QueryRow(ctx, `SELECT status FROM journal_entries WHERE entry_id = $1;`, change.EntryID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, change.EntryID)
		}
		return fmt.Errorf("%w: entry %s is %s, not %s", apperrors.ErrStaleState, change.EntryID, status, change.From)
	}

	if change.Approval != nil {
		a := mapping.ToModelApproval(*change.Approval)
		_, err := q.Exec(ctx, `
			INSERT INTO entry_approvals (entry_id, approver_id, action, comments, action_at)
			VALUES ($1, $2, $3, $4, $5);`,
			a.EntryID, a.ApproverID, a.Action, a.Comments, a.ActionAt)
		if err != nil {
			return apperrors.NewAppError(500, "failed to record approval for entry "+change.EntryID, err)
		}
	}
	return nil
}

// NextEntryNumber increments the counter for the entry date's month atomically.
func (r *PgxJournalRepository) NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error) {
	month := entryDate.Format("200601")
	query := `
		INSERT INTO entry_number_counters (period_month, last_value)
		VALUES ($1, 1)
		ON CONFLICT (period_month) DO UPDATE SET last_value = entry_number_counters.last_value + 1
		RETURNING last_value;
	`
	var n int
	if err := r.Pool.QueryRow(ctx, query, month).Scan(&n); err != nil {
		return "", apperrors.NewAppError(500, "failed to allocate entry number", err)
	}
	return fmt.Sprintf("JE%s%04d", month, n), nil
}
