package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// WithinTx runs fn with exclusive access to the store. Writes are staged on the
// transaction and copied into the store only if fn succeeds and ctx is still live.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if err := s.tx.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.tx.Release(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &ledgerTx{
		store:     s,
		accounts:  make(map[string]domain.Account),
		entries:   make(map[string]domain.JournalEntry),
		approvals: make(map[string][]domain.ApprovalRecord),
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ledgerTx reads through to the store, which the enclosing WithinTx holds locked.
type ledgerTx struct {
	store     *Store
	accounts  map[string]domain.Account
	entries   map[string]domain.JournalEntry
	approvals map[string][]domain.ApprovalRecord
}

var _ portsrepo.LedgerTx = (*ledgerTx)(nil)

func (t *ledgerTx) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	if e, ok := t.entries[entryID]; ok {
		out := e.Clone()
		return &out, nil
	}
	return t.store.entryLocked(entryID)
}

func (t *ledgerTx) FindPeriodForShare(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error) {
	p, ok := t.store.periods[key]
	if !ok {
		return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, key)
	}
	return &p, nil
}

func (t *ledgerTx) FindAccountsForUpdate(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error) {
	sorted := append([]string(nil), accountNumbers...)
	sort.Strings(sorted)
	out := make(map[string]domain.Account, len(sorted))
	for _, n := range sorted {
		if acc, ok := t.account(n); ok {
			out[n] = acc
		}
	}
	return out, nil
}

func (t *ledgerTx) ApplyBalanceDelta(ctx context.Context, accountNumber string, delta decimal.Decimal, actorID string, at time.Time) (decimal.Decimal, error) {
	acc, ok := t.account(accountNumber)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountNumber)
	}
	if !acc.IsActive {
		return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrAccountInactive, accountNumber)
	}
	acc.CurrentBalance = acc.CurrentBalance.Add(delta)
	acc.LastUpdatedAt, acc.LastUpdatedBy = at, actorID
	t.accounts[accountNumber] = acc
	return acc.CurrentBalance, nil
}

func (t *ledgerTx) UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error {
	current, ok := t.entries[change.EntryID]
	if !ok {
		current, ok = t.store.entries[change.EntryID]
		if !ok {
			return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, change.EntryID)
		}
	}
	next, err := applyStatusChange(current, change)
	if err != nil {
		return err
	}
	t.entries[change.EntryID] = next
	if change.Approval != nil {
		t.approvals[change.EntryID] = append(t.approvals[change.EntryID], *change.Approval)
	}
	return nil
}

func (t *ledgerTx) account(number string) (domain.Account, bool) {
	if acc, ok := t.accounts[number]; ok {
		return acc, true
	}
	acc, ok := t.store.accounts[number]
	return acc, ok
}

func (t *ledgerTx) commit() {
	for n, acc := range t.accounts {
		t.store.accounts[n] = acc
	}
	for id, e := range t.entries {
		t.store.entries[id] = e
	}
	for id, recs := range t.approvals {
		t.store.approvals[id] = append(t.store.approvals[id], recs...)
	}
}
