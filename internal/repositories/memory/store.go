// Package memory is an in-process LedgerStore. Transactions are serialized and their
// writes are staged until commit, so a failed or cancelled transaction leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"golang.org/x/sync/semaphore"
)

// Store keeps the whole ledger in memory.
type Store struct {
	mu sync.RWMutex
	tx *semaphore.Weighted

	accounts  map[string]domain.Account
	entries   map[string]domain.JournalEntry
	approvals map[string][]domain.ApprovalRecord
	periods   map[domain.PeriodKey]domain.FinancialPeriod
	snapshots map[domain.PeriodKey]domain.TrialBalance
	counters  map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tx:        semaphore.NewWeighted(1),
		accounts:  make(map[string]domain.Account),
		entries:   make(map[string]domain.JournalEntry),
		approvals: make(map[string][]domain.ApprovalRecord),
		periods:   make(map[domain.PeriodKey]domain.FinancialPeriod),
		snapshots: make(map[domain.PeriodKey]domain.TrialBalance),
		counters:  make(map[string]int),
	}
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// --- accounts ---

func (s *Store) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountNumber]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountNumber)
	}
	return &acc, nil
}

func (s *Store) FindAccountsByNumbers(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountNumbers))
	for _, n := range accountNumbers {
		if acc, ok := s.accounts[n]; ok {
			out[n] = acc
		}
	}
	return out, nil
}

func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		all = append(all, acc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AccountNumber < all[j].AccountNumber })
	return page(all, limit, offset), nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; ok {
		return fmt.Errorf("%w: account %s already exists", apperrors.ErrDuplicate, account.AccountNumber)
	}
	s.accounts[account.AccountNumber] = account
	return nil
}

func (s *Store) DeactivateAccount(ctx context.Context, accountNumber string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountNumber]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountNumber)
	}
	acc.IsActive = false
	acc.LastUpdatedAt = now
	acc.LastUpdatedBy = userID
	s.accounts[accountNumber] = acc
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountNumber]; !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountNumber)
	}
	for _, e := range s.entries {
		for _, l := range e.Lines {
			if l.AccountNumber == accountNumber {
				return fmt.Errorf("%w: account %s is used by entry %s", apperrors.ErrReferenced, accountNumber, e.EntryNumber)
			}
		}
	}
	delete(s.accounts, accountNumber)
	return nil
}

// --- journal ---

func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryLocked(entryID)
}

func (s *Store) entryLocked(entryID string) (*domain.JournalEntry, error) {
	e, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	out := e.Clone()
	return &out, nil
}

func (s *Store) ListApprovals(ctx context.Context, entryID string) ([]domain.ApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ApprovalRecord(nil), s.approvals[entryID]...), nil
}

func (s *Store) FindEntriesByReference(ctx context.Context, referenceNumber string) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.JournalEntry
	for _, e := range s.entries {
		if referenceNumber != "" && e.ReferenceNumber == referenceNumber {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber < out[j].EntryNumber })
	return out, nil
}

func (s *Store) CountNonTerminalEntries(ctx context.Context, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to := domain.DateOnly(start), domain.DateOnly(end)
	n := 0
	for _, e := range s.entries {
		d := domain.DateOnly(e.EntryDate)
		if !e.Status.IsTerminal() && !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.EntryID]; ok {
		return fmt.Errorf("%w: entry %s already exists", apperrors.ErrDuplicate, entry.EntryID)
	}
	s.entries[entry.EntryID] = entry.Clone()
	return nil
}

func (s *Store) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[entry.EntryID]
	if !ok {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entry.EntryID)
	}
	if current.Status != domain.StatusDraft {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrStaleState, entry.EntryID, current.Status)
	}
	next := entry.Clone()
	next.Status = domain.StatusDraft
	next.EntryNumber = current.EntryNumber
	next.CreatedAt, next.CreatedBy = current.CreatedAt, current.CreatedBy
	s.entries[entry.EntryID] = next
	return nil
}

func (s *Store) UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[change.EntryID]
	if !ok {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, change.EntryID)
	}
	next, err := applyStatusChange(current, change)
	if err != nil {
		return err
	}
	s.entries[change.EntryID] = next
	if change.Approval != nil {
		s.approvals[change.EntryID] = append(s.approvals[change.EntryID], *change.Approval)
	}
	return nil
}

func (s *Store) NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	month := entryDate.Format("200601")
	s.counters[month]++
	return fmt.Sprintf("JE%s%04d", month, s.counters[month]), nil
}

// applyStatusChange performs the compare-and-set on a copy of the entry.
func applyStatusChange(current domain.JournalEntry, change domain.StatusChange) (domain.JournalEntry, error) {
	if current.Status != change.From {
		return current, fmt.Errorf("%w: entry %s is %s, not %s", apperrors.ErrStaleState, change.EntryID, current.Status, change.From)
	}
	next := current.Clone()
	next.Status = change.To
	next.LastUpdatedAt = change.At
	next.LastUpdatedBy = change.ActorID
	actor, at := change.ActorID, change.At
	switch change.To {
	case domain.StatusApproved:
		next.ApprovedBy, next.ApprovedAt = &actor, &at
	case domain.StatusPosted:
		next.PostedBy, next.PostedAt = &actor, &at
	}
	return next, nil
}

// --- periods ---

func (s *Store) FindPeriod(ctx context.Context, key domain.PeriodKey) (*domain.FinancialPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.periods[key]
	if !ok {
		return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, key)
	}
	return &p, nil
}

func (s *Store) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.periods {
		if p.Contains(date) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: no period contains %s", apperrors.ErrNotFound, date.Format(time.DateOnly))
}

func (s *Store) ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FinancialPeriod, 0, len(s.periods))
	for _, p := range s.periods {
		if fiscalYear == 0 || p.FiscalYear == fiscalYear {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Before(out[j].Key()) })
	return out, nil
}

func (s *Store) SavePeriod(ctx context.Context, period domain.FinancialPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[period.Key()]; ok {
		return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, period.Key())
	}
	s.periods[period.Key()] = period
	return nil
}

func (s *Store) UpdatePeriodStatus(ctx context.Context, key domain.PeriodKey, from, to domain.PeriodStatus, actorID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[key]
	if !ok {
		return fmt.Errorf("%w: period %s", apperrors.ErrNotFound, key)
	}
	if p.Status != from {
		return fmt.Errorf("%w: period %s is %s, not %s", apperrors.ErrStaleState, key, p.Status, from)
	}
	p.Status = to
	p.LastUpdatedAt, p.LastUpdatedBy = at, actorID
	switch to {
	case domain.PeriodClosed:
		p.ClosedBy, p.ClosedAt = &actorID, &at
	case domain.PeriodLocked:
		p.LockedBy, p.LockedAt = &actorID, &at
	case domain.PeriodOpen:
		p.ClosedBy, p.ClosedAt = nil, nil
	}
	s.periods[key] = p
	return nil
}

// --- trial balance ---

func (s *Store) LoadTrialBalanceInputs(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalanceInputs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inputs := &domain.TrialBalanceInputs{
		Accounts: make([]domain.Account, 0, len(s.accounts)),
		Prior:    make(map[string]domain.Movement),
		Current:  make(map[string]domain.Movement),
	}
	for _, acc := range s.accounts {
		inputs.Accounts = append(inputs.Accounts, acc)
	}
	for _, e := range s.entries {
		if e.Status != domain.StatusPosted {
			continue
		}
		var bucket map[string]domain.Movement
		switch {
		case e.Period() == key:
			bucket = inputs.Current
		case e.Period().Before(key):
			bucket = inputs.Prior
		default:
			continue
		}
		for _, l := range e.Lines {
			bucket[l.AccountNumber] = bucket[l.AccountNumber].Add(domain.Movement{Debit: l.DebitAmount, Credit: l.CreditAmount})
		}
	}
	return inputs, nil
}

func (s *Store) SaveTrialBalance(ctx context.Context, tb domain.TrialBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[tb.Key()] = tb
	return nil
}

func (s *Store) FindTrialBalance(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tb, ok := s.snapshots[key]
	if !ok {
		return nil, fmt.Errorf("%w: trial balance %s", apperrors.ErrNotFound, key)
	}
	return &tb, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
