package services

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
)

// ledgerService is the narrow facade offered to surrounding components.
type ledgerService struct {
	journal      portssvc.JournalSvcFacade
	trialBalance portssvc.TrialBalanceSvc
	periods      portssvc.PeriodGateSvc
}

// NewLedgerService composes the ledger facade from its component services.
func NewLedgerService(journal portssvc.JournalSvcFacade, trialBalance portssvc.TrialBalanceSvc, periods portssvc.PeriodGateSvc) portssvc.LedgerService {
	return &ledgerService{journal: journal, trialBalance: trialBalance, periods: periods}
}

var _ portssvc.LedgerService = (*ledgerService)(nil)

func (s *ledgerService) Validate(ctx context.Context, entry domain.JournalEntry) error {
	return s.journal.Validate(ctx, entry)
}

func (s *ledgerService) Submit(ctx context.Context, entryID string, actor domain.Actor) (domain.EntryStatus, error) {
	return s.journal.Submit(ctx, entryID, actor)
}

func (s *ledgerService) Approve(ctx context.Context, entryID string, actor domain.Actor, decision domain.ApprovalAction, comments string) (domain.EntryStatus, error) {
	return s.journal.Approve(ctx, entryID, actor, decision, comments)
}

func (s *ledgerService) Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	return s.journal.Post(ctx, entryID, actor)
}

func (s *ledgerService) ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	return s.trialBalance.ComputeTrialBalance(ctx, fiscalYear, fiscalPeriod)
}

func (s *ledgerService) PeriodStatus(ctx context.Context, date time.Time) (domain.PeriodStatus, error) {
	return s.periods.PeriodStatus(ctx, date)
}
