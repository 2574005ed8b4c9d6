package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountNumber string, actor domain.Actor) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams, actor domain.Actor) ([]domain.Account, error) {
	args := m.Called(ctx, params, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor domain.Actor) (*domain.Account, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountNumber string, actor domain.Actor) error {
	return m.Called(ctx, accountNumber, actor).Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, accountNumber string, actor domain.Actor) error {
	return m.Called(ctx, accountNumber, actor).Error(0)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Validate(ctx context.Context, entry domain.JournalEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockJournalService) CreateDraft(ctx context.Context, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) UpdateDraft(ctx context.Context, entryID string, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) GetEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Submit(ctx context.Context, entryID string, actor domain.Actor) (domain.EntryStatus, error) {
	args := m.Called(ctx, entryID, actor)
	return args.Get(0).(domain.EntryStatus), args.Error(1)
}

func (m *MockJournalService) Approve(ctx context.Context, entryID string, actor domain.Actor, decision domain.ApprovalAction, comments string) (domain.EntryStatus, error) {
	args := m.Called(ctx, entryID, actor, decision, comments)
	return args.Get(0).(domain.EntryStatus), args.Error(1)
}

func (m *MockJournalService) Cancel(ctx context.Context, entryID string, actor domain.Actor, reason string) (domain.EntryStatus, error) {
	args := m.Called(ctx, entryID, actor, reason)
	return args.Get(0).(domain.EntryStatus), args.Error(1)
}

func (m *MockJournalService) Reverse(ctx context.Context, entryID string, actor domain.Actor, reverseDate time.Time, description string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, actor, reverseDate, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error) {
	args := m.Called(ctx, entryID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostedReceipt), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) PeriodStatus(ctx context.Context, date time.Time) (domain.PeriodStatus, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(domain.PeriodStatus), args.Error(1)
}

func (m *MockPeriodService) EnsureDateOpen(ctx context.Context, date time.Time) (*domain.FinancialPeriod, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialPeriod), args.Error(1)
}

func (m *MockPeriodService) EnsurePeriodOpen(ctx context.Context, key domain.PeriodKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockPeriodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, actor domain.Actor) (*domain.FinancialPeriod, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialPeriod), args.Error(1)
}

func (m *MockPeriodService) ClosePeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return m.Called(ctx, key, actor).Error(0)
}

func (m *MockPeriodService) LockPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return m.Called(ctx, key, actor).Error(0)
}

func (m *MockPeriodService) ReopenPeriod(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error {
	return m.Called(ctx, key, actor).Error(0)
}

func (m *MockPeriodService) ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error) {
	args := m.Called(ctx, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialPeriod), args.Error(1)
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

// --- Mock TrialBalanceService ---
type MockTrialBalanceService struct {
	mock.Mock
}

func (m *MockTrialBalanceService) ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	args := m.Called(ctx, fiscalYear, fiscalPeriod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func (m *MockTrialBalanceService) GetTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	args := m.Called(ctx, fiscalYear, fiscalPeriod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func (m *MockTrialBalanceService) VerifyPeriod(ctx context.Context, period domain.FinancialPeriod) (*domain.TrialBalance, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

var _ portssvc.TrialBalanceSvc = (*MockTrialBalanceService)(nil)
