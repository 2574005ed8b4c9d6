package services

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Account      AccountSvcFacade
	Journal      JournalSvcFacade
	Period       PeriodSvcFacade
	TrialBalance TrialBalanceSvc
	Ledger       LedgerService
}

// LedgerService is the surface the ledger core exposes to surrounding components.
type LedgerService interface {
	Validate(ctx context.Context, entry domain.JournalEntry) error
	Submit(ctx context.Context, entryID string, actor domain.Actor) (domain.EntryStatus, error)
	Approve(ctx context.Context, entryID string, actor domain.Actor, decision domain.ApprovalAction, comments string) (domain.EntryStatus, error)
	Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error)
	ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error)
	PeriodStatus(ctx context.Context, date time.Time) (domain.PeriodStatus, error)
}
