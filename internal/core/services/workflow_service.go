package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

// journalService authors drafts and drives entries through the approval workflow.
// Posting itself is delegated to the posting engine.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	periodRepo  portsrepo.PeriodReader
	locker      ports.PostingLocker
	validator   portssvc.EntryValidatorSvc
	poster      portssvc.PostingSvc
}

// NewJournalService creates the journal workflow service.
func NewJournalService(
	journalRepo portsrepo.JournalRepositoryFacade,
	periodRepo portsrepo.PeriodReader,
	locker ports.PostingLocker,
	validator portssvc.EntryValidatorSvc,
	poster portssvc.PostingSvc,
	opts ...ServiceOption,
) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(buildOptions(opts)),
		journalRepo: journalRepo,
		periodRepo:  periodRepo,
		locker:      locker,
		validator:   validator,
		poster:      poster,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) Validate(ctx context.Context, entry domain.JournalEntry) error {
	return s.validator.Validate(ctx, entry)
}

func (s *journalService) Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	return s.poster.Post(ctx, entryID, actor)
}

func (s *journalService) GetEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapView, "entry "+entryID); err != nil {
		return nil, err
	}
	return s.loadEntry(ctx, entryID)
}

func (s *journalService) CreateDraft(ctx context.Context, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapCreate, "new entry"); err != nil {
		return nil, err
	}
	if req.EntryType == domain.EntryReversing {
		return nil, fmt.Errorf("%w: reversing entries are created from the entry they reverse", apperrors.ErrValidation)
	}
	if req.EntryType != "" && !req.EntryType.Valid() {
		return nil, fmt.Errorf("%w: unknown entry type %q", apperrors.ErrValidation, req.EntryType)
	}

	entry := req.ToCandidate()
	entry.EntryID = uuid.NewString()
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.EntryID
	}
	return s.saveNewDraft(ctx, entry, actor)
}

func (s *journalService) saveNewDraft(ctx context.Context, entry domain.JournalEntry, actor domain.Actor) (*domain.JournalEntry, error) {
	err := s.withDraftPeriod(ctx, entry.EntryDate, func(ctx context.Context) error {
		number, err := s.journalRepo.NextEntryNumber(ctx, entry.EntryDate)
		if err != nil {
			return fmt.Errorf("allocating entry number: %w", err)
		}
		now := s.Now()
		entry.EntryNumber = number
		entry.Status = domain.StatusDraft
		entry.TotalDebits, entry.TotalCredits = entry.Sums()
		entry.AuditFields = domain.CreatedAudit(actor.UserID, now)
		return s.journalRepo.SaveEntry(ctx, entry)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to save draft entry", slog.String("entry_id", entry.EntryID))
		}
		return nil, err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID:  actor.UserID,
		Action:   domain.AuditEntryCreated,
		Entity:   "journal_entry",
		EntityID: entry.EntryID,
		Meta:     map[string]any{"entry_number": entry.EntryNumber, "entry_type": string(entry.EntryType)},
		At:       entry.CreatedAt,
	})
	s.LogInfo(ctx, "Draft entry created",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber))
	return &entry, nil
}

func (s *journalService) UpdateDraft(ctx context.Context, entryID string, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapEdit, "entry "+entryID); err != nil {
		return nil, err
	}
	current, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := requireAuthor(current, actor, "edit"); err != nil {
		return nil, err
	}
	if current.Status != domain.StatusDraft {
		return nil, apperrors.IllegalTransition("entry "+entryID, string(current.Status), string(domain.StatusDraft))
	}
	if req.EntryType == domain.EntryReversing && current.EntryType != domain.EntryReversing {
		return nil, fmt.Errorf("%w: reversing entries are created from the entry they reverse", apperrors.ErrValidation)
	}

	updated := req.ToCandidate()
	updated.EntryID = current.EntryID
	updated.EntryNumber = current.EntryNumber
	updated.ReferenceNumber = current.ReferenceNumber
	updated.Lines = req.ToDomainLines(current.EntryID)
	if current.EntryType == domain.EntryReversing {
		// A reversal posts exactly the swap of its original; only header fields may change.
		updated.EntryType = domain.EntryReversing
		if !accounting.SameMovements(current.Lines, updated.Lines) {
			return nil, apperrors.NewValidationError(apperrors.RuleReversalLines,
				fmt.Sprintf("lines of reversing entry %s are fixed by %s", current.EntryNumber, current.ReferenceNumber))
		}
	}
	updated.TotalDebits, updated.TotalCredits = updated.Sums()
	updated.AuditFields = current.AuditFields
	updated.Touch(actor.UserID, s.Now())

	err = s.withDraftPeriod(ctx, updated.EntryDate, func(ctx context.Context) error {
		return s.journalRepo.ReplaceDraft(ctx, updated)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, s.staleTransition(ctx, entryID, domain.StatusDraft)
		}
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to update draft entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditEntryUpdated, Entity: "journal_entry", EntityID: entryID, At: updated.LastUpdatedAt,
	})
	return &updated, nil
}

func (s *journalService) Submit(ctx context.Context, entryID string, actor domain.Actor) (domain.EntryStatus, error) {
	entry, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if err := requireAuthor(entry, actor, "submit"); err != nil {
		return "", err
	}
	if entry.Status != domain.StatusDraft {
		return "", apperrors.IllegalTransition("entry "+entryID, string(entry.Status), string(domain.StatusPending))
	}

	// The shared period lock keeps a close from completing between validation and the status write.
	err = s.withDraftPeriod(ctx, entry.EntryDate, func(ctx context.Context) error {
		if err := s.validator.Validate(ctx, *entry); err != nil {
			return err
		}
		return s.journalRepo.UpdateEntryStatus(ctx, domain.StatusChange{
			EntryID: entryID,
			From:    domain.StatusDraft,
			To:      domain.StatusPending,
			ActorID: actor.UserID,
			At:      s.Now(),
		})
	})
	if err != nil {
		var vErr *apperrors.ValidationError
		switch {
		case errors.As(err, &vErr):
			s.LogInfo(ctx, "Entry failed validation on submit",
				slog.String("entry_id", entryID),
				slog.String("rule", string(vErr.Rule)))
			return "", err
		case errors.Is(err, apperrors.ErrStaleState):
			return "", s.staleTransition(ctx, entryID, domain.StatusPending)
		case errors.Is(err, apperrors.ErrValidation):
			return "", err
		}
		s.LogError(ctx, err, "Failed to submit entry", slog.String("entry_id", entryID))
		return "", err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditEntrySubmit, Entity: "journal_entry", EntityID: entryID,
		Meta: map[string]any{"entry_number": entry.EntryNumber},
	})
	return domain.StatusPending, nil
}

func (s *journalService) Approve(ctx context.Context, entryID string, actor domain.Actor, decision domain.ApprovalAction, comments string) (domain.EntryStatus, error) {
	var target domain.EntryStatus
	var action domain.AuditAction
	switch decision {
	case domain.ActionApprove:
		target, action = domain.StatusApproved, domain.AuditEntryApprove
	case domain.ActionReject:
		target, action = domain.StatusRejected, domain.AuditEntryReject
	default:
		return "", fmt.Errorf("%w: unknown approval decision %q", apperrors.ErrValidation, decision)
	}

	if err := s.Authorize(ctx, actor, domain.CapApprove, "entry "+entryID); err != nil {
		return "", err
	}
	entry, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if entry.Status != domain.StatusPending {
		return "", apperrors.IllegalTransition("entry "+entryID, string(entry.Status), string(target))
	}

	now := s.Now()
	err = s.journalRepo.UpdateEntryStatus(ctx, domain.StatusChange{
		EntryID: entryID,
		From:    domain.StatusPending,
		To:      target,
		ActorID: actor.UserID,
		At:      now,
		Approval: &domain.ApprovalRecord{
			EntryID:    entryID,
			ApproverID: actor.UserID,
			Action:     decision,
			Comments:   comments,
			ActionAt:   now,
		},
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return "", s.staleTransition(ctx, entryID, target)
		}
		s.LogError(ctx, err, "Failed to record approval decision", slog.String("entry_id", entryID))
		return "", err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: action, Entity: "journal_entry", EntityID: entryID, At: now,
		Meta: map[string]any{"comments": comments},
	})
	return target, nil
}

func (s *journalService) Cancel(ctx context.Context, entryID string, actor domain.Actor, reason string) (domain.EntryStatus, error) {
	entry, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if entry.CreatedBy != actor.UserID && !actor.Can(domain.CapApprove) {
		return "", s.Authorize(ctx, actor, domain.CapApprove, "entry "+entryID)
	}
	switch entry.Status {
	case domain.StatusDraft, domain.StatusPending, domain.StatusApproved:
	default:
		return "", apperrors.IllegalTransition("entry "+entryID, string(entry.Status), string(domain.StatusCancelled))
	}
	period, err := s.periodRepo.FindPeriodByDate(ctx, entry.EntryDate)
	switch {
	case err == nil && period.Status == domain.PeriodLocked:
		return "", apperrors.NewValidationError(apperrors.RulePeriodNotOpen,
			fmt.Sprintf("period %s is locked; its entries cannot change", period.Key()))
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Failed to load period for cancel", slog.String("entry_id", entryID))
		return "", err
	}

	err = s.journalRepo.UpdateEntryStatus(ctx, domain.StatusChange{
		EntryID: entryID,
		From:    entry.Status,
		To:      domain.StatusCancelled,
		ActorID: actor.UserID,
		At:      s.Now(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return "", s.staleTransition(ctx, entryID, domain.StatusCancelled)
		}
		s.LogError(ctx, err, "Failed to cancel entry", slog.String("entry_id", entryID))
		return "", err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditEntryCancel, Entity: "journal_entry", EntityID: entryID,
		Meta: map[string]any{"reason": reason, "from": string(entry.Status)},
	})
	return domain.StatusCancelled, nil
}

// Reverse creates a draft whose lines are the exact debit/credit swap of a posted entry.
// The reversal is linked through ReferenceNumber and goes through the full workflow itself.
func (s *journalService) Reverse(ctx context.Context, entryID string, actor domain.Actor, reverseDate time.Time, description string) (*domain.JournalEntry, error) {
	if err := s.Authorize(ctx, actor, domain.CapCreate, "entry "+entryID); err != nil {
		return nil, err
	}

	// Serializes concurrent reversals of the same original.
	release, err := s.locker.LockEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("acquiring entry lock: %w", err)
	}
	defer release()

	original, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.StatusPosted {
		return nil, apperrors.IllegalTransition("entry "+entryID, string(original.Status), "REVERSED")
	}

	origPeriod, err := s.periodRepo.FindPeriod(ctx, original.Period())
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if origPeriod != nil && origPeriod.Status == domain.PeriodLocked {
		return nil, apperrors.NewValidationError(apperrors.RulePeriodNotOpen,
			fmt.Sprintf("period %s is locked; its entries cannot be reversed", origPeriod.Key()))
	}

	existing, err := s.journalRepo.FindEntriesByReference(ctx, original.EntryNumber)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.EntryType == domain.EntryReversing && e.Status != domain.StatusRejected && e.Status != domain.StatusCancelled {
			return nil, &apperrors.WorkflowError{
				Kind:    apperrors.KindIllegalTransition,
				Subject: "entry " + entryID,
				From:    string(original.Status),
				To:      "REVERSED",
				ActorID: actor.UserID,
				Message: fmt.Sprintf("already reversed by %s", e.EntryNumber),
			}
		}
	}

	target, err := s.periodRepo.FindPeriodByDate(ctx, reverseDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError(apperrors.RulePeriodNotOpen,
				fmt.Sprintf("no financial period contains %s", reverseDate.Format(time.DateOnly)))
		}
		return nil, err
	}

	if description == "" {
		description = "Reversal of " + original.EntryNumber
	}
	reversal := domain.JournalEntry{
		EntryID:         uuid.NewString(),
		EntryDate:       reverseDate,
		FiscalYear:      target.FiscalYear,
		FiscalPeriod:    target.PeriodNumber,
		EntryType:       domain.EntryReversing,
		Description:     description,
		ReferenceNumber: original.EntryNumber,
		SourceSystem:    original.SourceSystem,
		BatchID:         original.BatchID,
		Lines:           accounting.SwapLines(original.Lines),
	}
	for i := range reversal.Lines {
		reversal.Lines[i].EntryID = reversal.EntryID
	}

	created, err := s.saveNewDraft(ctx, reversal, actor)
	if err != nil {
		return nil, err
	}
	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditEntryReverse, Entity: "journal_entry", EntityID: entryID,
		Meta: map[string]any{"reversing_entry_id": created.EntryID, "reversing_entry_number": created.EntryNumber},
	})
	return created, nil
}

func (s *journalService) loadEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

// staleTransition reports a lost compare-and-set race using the entry's current state.
func (s *journalService) staleTransition(ctx context.Context, entryID string, to domain.EntryStatus) error {
	current, err := s.journalRepo.FindEntryByID(ctx, entryID)
	from := "UNKNOWN"
	if err == nil {
		from = string(current.Status)
	}
	return apperrors.IllegalTransition("entry "+entryID, from, string(to))
}

// withDraftPeriod runs fn under a shared lock on the period containing date, if one exists.
// Only open periods accept new or amended entries.
func (s *journalService) withDraftPeriod(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error {
	if date.IsZero() {
		return apperrors.NewValidationError(apperrors.RuleMissingEntryDate, "entry date is required")
	}
	period, err := s.periodRepo.FindPeriodByDate(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fn(ctx)
		}
		return err
	}
	if period.Status != domain.PeriodOpen {
		return apperrors.NewValidationError(apperrors.RulePeriodNotOpen,
			fmt.Sprintf("period %s is %s", period.Key(), period.Status))
	}
	release, err := s.locker.RLockPeriod(ctx, period.Key())
	if err != nil {
		return fmt.Errorf("acquiring period lock: %w", err)
	}
	defer release()
	return fn(ctx)
}

func requireAuthor(entry *domain.JournalEntry, actor domain.Actor, action string) error {
	if actor.UserID != "" && entry.CreatedBy == actor.UserID {
		return nil
	}
	return &apperrors.WorkflowError{
		Kind:    apperrors.KindNotAuthor,
		Subject: "entry " + entry.EntryID,
		From:    string(entry.Status),
		ActorID: actor.UserID,
		Message: "only the entry's author may " + action + " it",
	}
}
