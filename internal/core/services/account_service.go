package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/utils/accounting"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	cache       ports.TrialBalanceCache
}

// NewAccountService creates a new chart-of-accounts service
func NewAccountService(repo portsrepo.AccountRepositoryFacade, opts ...ServiceOption) portssvc.AccountSvcFacade {
	o := buildOptions(opts)
	return &accountService{
		BaseService: newBaseService(o),
		accountRepo: repo,
		cache:       o.cache,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	if err := s.Authorize(ctx, actor, domain.CapManageCOA, "account "+req.AccountNumber); err != nil {
		return nil, err
	}

	normal, err := domain.NormalBalanceFor(req.AccountType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.OpeningBalance.IsNegative() || !accounting.HasScaleAtMost(req.OpeningBalance, 2) {
		return nil, fmt.Errorf("%w: opening balance must be a non-negative amount with at most 2 decimal places", apperrors.ErrValidation)
	}

	now := s.Now()
	account := domain.Account{
		AccountNumber:  req.AccountNumber,
		Name:           req.Name,
		AccountType:    req.AccountType,
		NormalBalance:  normal,
		Description:    req.Description,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		IsActive:       true,
		AuditFields:    domain.CreatedAudit(actor.UserID, now),
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save account", slog.String("account_number", account.AccountNumber))
		}
		return nil, err
	}

	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID:  actor.UserID,
		Action:   domain.AuditAccountCreate,
		Entity:   "account",
		EntityID: account.AccountNumber,
		Meta:     map[string]any{"type": string(account.AccountType), "normal_balance": string(normal)},
		At:       now,
	})
	s.invalidateTrialBalances(ctx, account.AccountNumber)
	s.LogInfo(ctx, "Account created successfully", slog.String("account_number", account.AccountNumber))
	return &account, nil
}

func (s *accountService) GetAccount(ctx context.Context, accountNumber string, actor domain.Actor) (*domain.Account, error) {
	if err := s.Authorize(ctx, actor, domain.CapView, "account "+accountNumber); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account", slog.String("account_number", accountNumber))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams, actor domain.Actor) ([]domain.Account, error) {
	if err := s.Authorize(ctx, actor, domain.CapView, "accounts"); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountNumber string, actor domain.Actor) error {
	if err := s.Authorize(ctx, actor, domain.CapManageCOA, "account "+accountNumber); err != nil {
		return err
	}
	now := s.Now()
	if err := s.accountRepo.DeactivateAccount(ctx, accountNumber, actor.UserID, now); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_number", accountNumber))
		}
		return err
	}
	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditAccountDeact, Entity: "account", EntityID: accountNumber, At: now,
	})
	return nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountNumber string, actor domain.Actor) error {
	if err := s.Authorize(ctx, actor, domain.CapManageCOA, "account "+accountNumber); err != nil {
		return err
	}
	if err := s.accountRepo.DeleteAccount(ctx, accountNumber); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrReferenced):
			s.LogWarn(ctx, "Refused to delete account with posted lines", slog.String("account_number", accountNumber))
		case !errors.Is(err, apperrors.ErrNotFound):
			s.LogError(ctx, err, "Failed to delete account", slog.String("account_number", accountNumber))
		}
		return err
	}
	s.RecordAudit(ctx, domain.AuditEvent{
		ActorID: actor.UserID, Action: domain.AuditAccountDelete, Entity: "account", EntityID: accountNumber,
	})
	s.invalidateTrialBalances(ctx, accountNumber)
	return nil
}

// invalidateTrialBalances drops cached snapshots after the account set or an opening balance changed.
func (s *accountService) invalidateTrialBalances(ctx context.Context, accountNumber string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.LogError(ctx, err, "Failed to invalidate trial balance cache", slog.String("account_number", accountNumber))
	}
}
