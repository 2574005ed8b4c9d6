package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/core/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

// --- Implement mock methods for AccountRepositoryFacade ---

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByNumbers(ctx context.Context, accountNumbers []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountNumber string, userID string, now time.Time) error {
	args := m.Called(ctx, accountNumber, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, accountNumber string) error {
	args := m.Called(ctx, accountNumber)
	return args.Error(0)
}

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	now      time.Time
	admin    domain.Actor
	viewer   domain.Actor
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.service = services.NewAccountService(suite.mockRepo, services.WithClock(func() time.Time { return suite.now }))
	suite.admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	suite.viewer = domain.Actor{UserID: "viewer-1", Role: domain.RoleViewer}
}

func (suite *AccountServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_DerivesNormalBalance() {
	ctx := context.Background()
	cases := []struct {
		accountType domain.AccountType
		normal      domain.NormalBalance
	}{
		{domain.Asset, domain.DebitNormal},
		{domain.Expense, domain.DebitNormal},
		{domain.Liability, domain.CreditNormal},
		{domain.Equity, domain.CreditNormal},
		{domain.Revenue, domain.CreditNormal},
	}
	for i, tc := range cases {
		number := fmt.Sprintf("%d010", i+1)
		suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
			return a.AccountNumber == number
		})).Return(nil).Once()

		acc, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
			AccountNumber: number, Name: string(tc.accountType), AccountType: tc.accountType,
		}, suite.admin)

		suite.Require().NoError(err)
		suite.Equal(tc.normal, acc.NormalBalance, "account type %s", tc.accountType)
	}
}

func (suite *AccountServiceTestSuite) TestCreateAccount_OpeningBalanceSeedsCurrent() {
	ctx := context.Background()
	opening := decimal.RequireFromString("250.50")
	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	acc, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset, OpeningBalance: opening,
	}, suite.admin)

	suite.Require().NoError(err)
	suite.True(acc.CurrentBalance.Equal(opening))
	suite.True(acc.IsActive)
	suite.Equal(suite.admin.UserID, acc.CreatedBy)
	suite.Equal(suite.now, acc.CreatedAt)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidInput() {
	ctx := context.Background()

	_, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "9999", Name: "Bad", AccountType: "INCOME",
	}, suite.admin)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset, OpeningBalance: decimal.RequireFromString("1.005"),
	}, suite.admin)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset, OpeningBalance: decimal.NewFromInt(-5),
	}, suite.admin)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Duplicate() {
	ctx := context.Background()
	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Return(fmt.Errorf("%w: account 1010", apperrors.ErrDuplicate)).Once()

	acc, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset,
	}, suite.admin)

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Forbidden() {
	accountant := domain.Actor{UserID: "acct-1", Role: domain.RoleAccountant}

	_, err := suite.service.CreateAccount(context.Background(), dto.CreateAccountRequest{
		AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset,
	}, accountant)

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *AccountServiceTestSuite) TestGetAccount_NotFound() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByNumber", ctx, "9999").Return(nil, apperrors.ErrNotFound).Once()

	acc, err := suite.service.GetAccount(ctx, "9999", suite.viewer)

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestListAccounts_DefaultsPaging() {
	ctx := context.Background()
	expected := []domain.Account{{AccountNumber: "1010"}, {AccountNumber: "4010"}}
	suite.mockRepo.On("ListAccounts", ctx, 50, 0).Return(expected, nil).Once()

	accounts, err := suite.service.ListAccounts(ctx, dto.ListAccountsParams{Offset: -3}, suite.viewer)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), expected, accounts)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	suite.mockRepo.On("DeactivateAccount", ctx, "1010", suite.admin.UserID, suite.now).Return(nil).Once()

	suite.NoError(suite.service.DeactivateAccount(ctx, "1010", suite.admin))
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_Referenced() {
	ctx := context.Background()
	suite.mockRepo.On("DeleteAccount", ctx, "1010").
		Return(fmt.Errorf("%w: account 1010 has journal lines", apperrors.ErrReferenced)).Once()

	err := suite.service.DeleteAccount(ctx, "1010", suite.admin)

	suite.ErrorIs(err, apperrors.ErrReferenced)
}

func (suite *AccountServiceTestSuite) TestDeleteAccount_ViewerForbidden() {
	err := suite.service.DeleteAccount(context.Background(), "1010", suite.viewer)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestChartChanges_InvalidateTrialBalanceCache() {
	ctx := context.Background()
	cache := new(MockTrialBalanceCache)
	svc := services.NewAccountService(suite.mockRepo,
		services.WithClock(func() time.Time { return suite.now }),
		services.WithTrialBalanceCache(cache))

	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	suite.mockRepo.On("DeleteAccount", ctx, "1010").Return(apperrors.ErrReferenced).Once()
	suite.mockRepo.On("DeleteAccount", ctx, "3010").Return(nil).Once()
	cache.On("Invalidate", ctx).Return(nil).Twice()

	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountNumber: "3010", Name: "Surplus", AccountType: domain.Equity, OpeningBalance: decimal.NewFromInt(500),
	}, suite.admin)
	suite.Require().NoError(err)
	suite.ErrorIs(svc.DeleteAccount(ctx, "1010", suite.admin), apperrors.ErrReferenced)
	suite.NoError(svc.DeleteAccount(ctx, "3010", suite.admin))

	cache.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
