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
)

// periodService governs which fiscal periods accept postings.
type periodService struct {
	BaseService
	periodRepo  portsrepo.PeriodRepositoryFacade
	journalRepo portsrepo.JournalReader
	locker      ports.PostingLocker
}

// NewPeriodService creates the period controller.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade, journalRepo portsrepo.JournalReader, locker ports.PostingLocker, opts ...ServiceOption) portssvc.PeriodSvcFacade {
	return &periodService{
		BaseService: newBaseService(buildOptions(opts)),
		periodRepo:  periodRepo,
		journalRepo: journalRepo,
		locker:      locker,
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) PeriodStatus(ctx context.Context, date time.Time) (domain.PeriodStatus, error) {
	period, err := s.periodRepo.FindPeriodByDate(ctx, date)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find period by date", slog.Time("date", date))
		}
		return "", err
	}
	return period.Status, nil
}

func (s *periodService) EnsureDateOpen(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error) {
	period, err := s.periodRepo.FindPeriodByDate(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no financial period contains %s", apperrors.ErrPeriodNotOpen, date.Format(time.DateOnly))
		}
		return nil, err
	}
	if period.Status != domain.PeriodOpen {
		return nil, fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodNotOpen, period.Key(), period.Status)
	}
	return period, nil
}

func (s *periodService) EnsurePeriodOpen(ctx context.Context, key domain.PeriodKey) error {
	period, err := s.periodRepo.FindPeriod(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: period %s does not exist", apperrors.ErrPeriodNotOpen, key)
		}
		return err
	}
	if period.Status != domain.PeriodOpen {
		return fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodNotOpen, key, period.Status)
	}
	return nil
}

func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, actor domain.Actor) (*domain.FinancialPeriod, error) {
	key := domain.PeriodKey{FiscalYear: req.FiscalYear, PeriodNumber: req.PeriodNumber}
	if err := s.Authorize(ctx, actor, domain.CapManagePer, "period "+key.String()); err != nil {
		return nil, err
	}
	if req.PeriodNumber < 1 || req.PeriodNumber > 12 {
		return nil, fmt.Errorf("%w: period number must be between 1 and 12", apperrors.ErrValidation)
	}
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", apperrors.ErrValidation)
	}

	existing, err := s.periodRepo.ListPeriods(ctx, 0)
	if err != nil {
		s.LogError(ctx, err, "Failed to list periods for overlap check")
		return nil, err
	}
	for _, p := range existing {
		if !start.After(domain.DateOnly(p.EndDate)) && !end.Before(domain.DateOnly(p.StartDate)) {
			return nil, fmt.Errorf("%w: dates overlap period %s", apperrors.ErrValidation, p.Key())
		}
	}

	name := req.Name
	if name == "" {
		name = key.String()
	}
	now := s.Now()
	period := domain.FinancialPeriod{
		FiscalYear:   req.FiscalYear,
		PeriodNumber: req.PeriodNumber,
		Name:         name,
		StartDate:    start,
		EndDate:      end,
		Status:       domain.PeriodOpen,
		AuditFields:  domain.CreatedAudit(actor.UserID, now),
	}
	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save period", slog.String("period", key.String()))
		}
		return nil, err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditPeriodCreate, Entity: "period", EntityID: key.String(), At: now,
	})
	return &period, nil
}

// ClosePeriod moves an open period to closed. It holds the period's exclusive lock so that
// no post or draft in the period can be in flight while the pending-entry check runs.
func (s *periodService) ClosePeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return s.transition(ctx, key, actor, domain.CapClosePeriod, domain.PeriodOpen, domain.PeriodClosed, domain.AuditPeriodClose,
		s.requireSettled(actor, domain.PeriodClosed))
}

// LockPeriod hardens a closed period. There is no path back out of LOCKED.
func (s *periodService) LockPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return s.transition(ctx, key, actor, domain.CapLockPeriod, domain.PeriodClosed, domain.PeriodLocked, domain.AuditPeriodLock,
		s.requireSettled(actor, domain.PeriodLocked))
}

// requireSettled refuses the transition while any entry dated in the period is non-terminal.
func (s *periodService) requireSettled(actor domain.Actor, to domain.PeriodStatus) func(context.Context, *domain.FinancialPeriod) error {
	return func(ctx context.Context, period *domain.FinancialPeriod) error {
		pending, err := s.journalRepo.CountNonTerminalEntries(ctx, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("counting open entries: %w", err)
		}
		if pending > 0 {
			return &apperrors.WorkflowError{
				Kind:    apperrors.KindPendingEntries,
				Subject: "period " + period.Key().String(),
				From:    string(period.Status),
				To:      string(to),
				ActorID: actor.UserID,
				Message: fmt.Sprintf("%d entries dated in the period are not posted, rejected or cancelled", pending),
			}
		}
		return nil
	}
}

// ReopenPeriod returns a closed period to open. Locked periods cannot be reopened.
func (s *periodService) ReopenPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return s.transition(ctx, key, actor, domain.CapReopen, domain.PeriodClosed, domain.PeriodOpen, domain.AuditPeriodReopen, nil)
}

func (s *periodService) ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx, fiscalYear)
	if err != nil {
		s.LogError(ctx, err, "Failed to list periods", slog.Int("fiscal_year", fiscalYear))
		return nil, err
	}
	return periods, nil
}

func (s *periodService) transition(
	ctx context.Context,
	key domain.PeriodKey,
	actor domain.Actor,
	capability domain.Capability,
	from, to domain.PeriodStatus,
	action domain.AuditAction,
	guard func(ctx context.Context, period *domain.FinancialPeriod) error,
) error {
	subject := "period " + key.String()
	if err := s.Authorize(ctx, actor, capability, subject); err != nil {
		return err
	}

	release, err := s.locker.LockPeriod(ctx, key)
	if err != nil {
		s.LogError(ctx, err, "Failed to acquire period lock", slog.String("period", key.String()))
		return fmt.Errorf("acquiring period lock for %s: %w", key, err)
	}
	defer release()

	period, err := s.periodRepo.FindPeriod(ctx, key)
	if err != nil {
		return err
	}
	if period.Status != from {
		return apperrors.IllegalTransition(subject, string(period.Status), string(to))
	}
	if guard != nil {
		if err := guard(ctx, period); err != nil {
			s.LogWarn(ctx, "Period transition refused",
				slog.String("period", key.String()),
				slog.String("to", string(to)),
				slog.String("reason", err.Error()))
			return err
		}
	}

	now := s.Now()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, key, from, to, actor.UserID, now); err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return apperrors.IllegalTransition(subject, string(from), string(to))
		}
		s.LogError(ctx, err, "Failed to update period status", slog.String("period", key.String()))
		return err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "period",
		EntityID: key.String(),
		Meta:     map[string]any{"from": string(from), "to": string(to)},
		At:       now,
	})
	s.LogInfo(ctx, "Period status changed",
		slog.String("period", key.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	return nil
}
