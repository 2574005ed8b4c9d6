package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// Post outcomes reported to metrics.
const (
	postOutcomePosted   = "posted"
	postOutcomeRejected = "rejected"
	postOutcomeFailed   = "failed"
)

// postingService atomically applies approved entries to account balances.
type postingService struct {
	BaseService
	journalRepo portsrepo.JournalReader
	uow         portsrepo.UnitOfWork
	locker      ports.PostingLocker
	cache       ports.TrialBalanceCache
	jobs        ports.LedgerJobPublisher
	timeout     time.Duration
}

// NewPostingService creates the posting engine.
func NewPostingService(journalRepo portsrepo.JournalReader, uow portsrepo.UnitOfWork, locker ports.PostingLocker, opts ...ServiceOption) portssvc.PostingSvc {
	o := buildOptions(opts)
	return &postingService{
		BaseService: newBaseService(o),
		journalRepo: journalRepo,
		uow:         uow,
		locker:      locker,
		cache:       o.cache,
		jobs:        o.jobs,
		timeout:     o.postTimeout,
	}
}

var _ portssvc.PostingSvc = (*postingService)(nil)

// Post applies every line of an approved entry to its account and marks the entry posted,
// all in one store transaction. On any failure, including ctx cancellation, nothing is applied
// and the entry stays approved.
func (s *postingService) Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	start := time.Now()
	receipt, err := s.post(ctx, entryID, actor)
	s.observe(err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, receipt, actor)
	return receipt, nil
}

func (s *postingService) post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	if err := s.Authorize(ctx, actor, domain.CapPost, "entry "+entryID); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, s.fail(ctx, &apperrors.PostingError{EntryID: entryID, Reason: apperrors.ReasonStore, Err: err})
	}
	if err := checkPostable(entry); err != nil {
		return nil, err
	}

	releaseEntry, err := s.locker.LockEntry(ctx, entryID)
	if err != nil {
		return nil, s.fail(ctx, &apperrors.PostingError{EntryID: entryID, Reason: apperrors.ReasonLock, Err: err})
	}
	defer releaseEntry()

	key := entry.Period()
	releasePeriod, err := s.locker.RLockPeriod(ctx, key)
	if err != nil {
		return nil, s.fail(ctx, &apperrors.PostingError{EntryID: entryID, Reason: apperrors.ReasonLock, Err: err})
	}
	defer releasePeriod()

	var receipt *domain.PostedReceipt
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		r, err := s.applyEntry(ctx, tx, entryID, actor)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		var pErr *apperrors.PostingError
		if errors.As(err, &pErr) {
			return nil, s.fail(ctx, pErr)
		}
		reason := apperrors.ReasonStore
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = apperrors.ReasonAborted
		}
		return nil, s.fail(ctx, &apperrors.PostingError{EntryID: entryID, Reason: reason, Err: err})
	}
	return receipt, nil
}

// applyEntry runs inside the store transaction. Any returned error discards every write made here.
func (s *postingService) applyEntry(ctx context.Context, tx portsrepo.LedgerTx, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	entry, err := tx.FindEntryForUpdate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := checkPostable(entry); err != nil {
		return nil, err
	}

	period, err := tx.FindPeriodForShare(ctx, entry.Period())
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if period == nil || period.Status != domain.PeriodOpen || !period.Contains(entry.EntryDate) {
		status := "missing"
		if period != nil {
			status = string(period.Status)
		}
		return nil, &apperrors.PostingError{
			EntryID: entryID,
			Reason:  apperrors.ReasonPeriodClosed,
			Err:     fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodNotOpen, entry.Period(), status),
		}
	}

	order, movements := accounting.AggregateByAccount(entry.Lines)
	locked := append([]string(nil), order...)
	sort.Strings(locked)
	accounts, err := tx.FindAccountsForUpdate(ctx, locked)
	if err != nil {
		return nil, err
	}
	for _, l := range entry.Lines {
		acc, ok := accounts[l.AccountNumber]
		if !ok {
			return nil, &apperrors.PostingError{
				EntryID: entryID, Reason: apperrors.ReasonAccountMissing,
				LineNumber: l.LineNumber, AccountNumber: l.AccountNumber,
			}
		}
		if !acc.IsActive {
			return nil, &apperrors.PostingError{
				EntryID: entryID, Reason: apperrors.ReasonAccountInactive,
				LineNumber: l.LineNumber, AccountNumber: l.AccountNumber,
			}
		}
	}

	now := s.Now()
	changes := make([]domain.BalanceChange, 0, len(order))
	for _, number := range order {
		delta := accounting.SignedDelta(accounts[number].NormalBalance, movements[number])
		newBalance, err := tx.ApplyBalanceDelta(ctx, number, delta, actor.UserID, now)
		if err != nil {
			return nil, s.lineError(entry, number, err)
		}
		changes = append(changes, domain.BalanceChange{AccountNumber: number, Delta: delta, NewBalance: newBalance})
	}

	// A cancelled or timed-out caller must not see a commit.
	if err := ctx.Err(); err != nil {
		return nil, &apperrors.PostingError{EntryID: entryID, Reason: apperrors.ReasonAborted, Err: err}
	}

	err = tx.UpdateEntryStatus(ctx, domain.StatusChange{
		EntryID: entryID,
		From:    domain.StatusApproved,
		To:      domain.StatusPosted,
		ActorID: actor.UserID,
		At:      now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, &apperrors.PostingError{EntryID: entryID, Reason: apperrors.ReasonAlreadyPosted, Err: err}
		}
		return nil, err
	}

	return &domain.PostedReceipt{
		EntryID:        entryID,
		EntryNumber:    entry.EntryNumber,
		FiscalYear:     entry.FiscalYear,
		FiscalPeriod:   entry.FiscalPeriod,
		PostedBy:       actor.UserID,
		PostedAt:       now,
		BalanceChanges: changes,
	}, nil
}

// lineError maps a store balance failure to the first line that touches the account.
func (s *postingService) lineError(entry *domain.JournalEntry, accountNumber string, err error) error {
	line := 0
	for _, l := range entry.Lines {
		if l.AccountNumber == accountNumber {
			line = l.LineNumber
			break
		}
	}
	reason := apperrors.ReasonStore
	switch {
	case errors.Is(err, apperrors.ErrAccountInactive):
		reason = apperrors.ReasonAccountInactive
	case errors.Is(err, apperrors.ErrNotFound):
		reason = apperrors.ReasonAccountMissing
	}
	return &apperrors.PostingError{
		EntryID: entry.EntryID, Reason: reason, LineNumber: line, AccountNumber: accountNumber, Err: err,
	}
}

func checkPostable(entry *domain.JournalEntry) error {
	switch entry.Status {
	case domain.StatusApproved:
		return nil
	case domain.StatusPosted:
		return &apperrors.PostingError{EntryID: entry.EntryID, Reason: apperrors.ReasonAlreadyPosted}
	default:
		return &apperrors.PostingError{
			EntryID: entry.EntryID,
			Reason:  apperrors.ReasonNotApproved,
			Err:     apperrors.IllegalTransition("entry "+entry.EntryID, string(entry.Status), string(domain.StatusPosted)),
		}
	}
}

func (s *postingService) fail(ctx context.Context, err *apperrors.PostingError) error {
	attrs := []any{
		slog.String("entry_id", err.EntryID),
		slog.String("reason", string(err.Reason)),
	}
	if err.LineNumber > 0 {
		attrs = append(attrs, slog.Int("line_number", err.LineNumber), slog.String("account_number", err.AccountNumber))
	}
	if err.Reason == apperrors.ReasonStore {
		s.LogError(ctx, err, "Posting failed and was rolled back", attrs...)
	} else {
		s.LogWarn(ctx, "Posting refused", attrs...)
	}
	return err
}

func (s *postingService) observe(err error, took time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := postOutcomePosted
	if err != nil {
		outcome = postOutcomeRejected
		var pErr *apperrors.PostingError
		if errors.As(err, &pErr) && (pErr.Reason == apperrors.ReasonStore || pErr.Reason == apperrors.ReasonLock) {
			outcome = postOutcomeFailed
		}
	}
	s.metrics.ObservePost(outcome, took)
}

// afterCommit runs the post-commit side effects. The post has already succeeded,
// so their failures are logged only.
func (s *postingService) afterCommit(ctx context.Context, receipt *domain.PostedReceipt, actor domain.Actor) {
	total := decimal.Zero
	for _, c := range receipt.BalanceChanges {
		total = total.Add(c.Delta.Abs())
	}
	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID:  actor.UserID,
		Action:   domain.AuditEntryPost,
		Entity:   "journal_entry",
		EntityID: receipt.EntryID,
		Meta: map[string]any{
			"entry_number": receipt.EntryNumber,
			"accounts":     len(receipt.BalanceChanges),
		},
		At: receipt.PostedAt,
	})

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.LogError(ctx, err, "Failed to invalidate trial balance cache", slog.String("entry_id", receipt.EntryID))
		}
	}
	if s.jobs != nil {
		key := domain.PeriodKey{FiscalYear: receipt.FiscalYear, PeriodNumber: receipt.FiscalPeriod}
		if err := s.jobs.EnqueueTrialBalanceRefresh(ctx, key); err != nil {
			s.LogError(ctx, err, "Failed to enqueue trial balance refresh", slog.String("entry_id", receipt.EntryID))
		}
	}

	s.LogInfo(ctx, "Entry posted",
		slog.String("entry_id", receipt.EntryID),
		slog.String("entry_number", receipt.EntryNumber),
		slog.String("gross_movement", total.StringFixed(2)))
}
