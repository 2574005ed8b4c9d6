package handlers_test

import (
	"net/http"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func march2024(status domain.PeriodStatus) domain.FinancialPeriod {
	return domain.FinancialPeriod{
		FiscalYear:   2024,
		PeriodNumber: 3,
		Name:         "March 2024",
		StartDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:       status,
	}
}

func balancedTrialBalance() *domain.TrialBalance {
	hundred := decimal.NewFromInt(100)
	return &domain.TrialBalance{
		FiscalYear:   2024,
		FiscalPeriod: 3,
		Lines: []domain.TrialBalanceLine{
			{AccountNumber: "1010", AccountName: "Cash", AccountType: domain.Asset, PeriodDebit: hundred, PeriodCredit: decimal.Zero, ClosingDebit: hundred, ClosingCredit: decimal.Zero, Closing: hundred},
			{AccountNumber: "4010", AccountName: "Grant revenue", AccountType: domain.Revenue, PeriodDebit: decimal.Zero, PeriodCredit: hundred, ClosingDebit: decimal.Zero, ClosingCredit: hundred, Closing: hundred},
		},
		TotalPeriodDebit:   hundred,
		TotalPeriodCredit:  hundred,
		TotalClosingDebit:  hundred,
		TotalClosingCredit: hundred,
		IsBalanced:         true,
	}
}

func (suite *HandlerTestSuite) TestCreatePeriod_Success() {
	admin := domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	period := march2024(domain.PeriodOpen)
	suite.periods.On("CreatePeriod", mock.Anything, mock.MatchedBy(func(r dto.CreatePeriodRequest) bool {
		return r.FiscalYear == 2024 && r.PeriodNumber == 3
	}), admin).Return(&period, nil).Once()

	w := suite.doAs(admin, http.MethodPost, "/api/v1/periods", map[string]any{
		"fiscalYear":   2024,
		"periodNumber": 3,
		"name":         "March 2024",
		"startDate":    "2024-03-01T00:00:00Z",
		"endDate":      "2024-03-31T00:00:00Z",
	})

	suite.Equal(http.StatusCreated, w.Code)
	suite.Contains(w.Body.String(), `"status":"OPEN"`)
}

func (suite *HandlerTestSuite) TestCreatePeriod_PeriodNumberOutOfRange() {
	w := suite.do(http.MethodPost, "/api/v1/periods", map[string]any{
		"fiscalYear":   2024,
		"periodNumber": 13,
		"startDate":    "2024-03-01T00:00:00Z",
		"endDate":      "2024-03-31T00:00:00Z",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListPeriods_ByYear() {
	suite.periods.On("ListPeriods", mock.Anything, 2024).
		Return([]domain.FinancialPeriod{march2024(domain.PeriodOpen)}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods?year=2024", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"periodNumber":3`)
}

func (suite *HandlerTestSuite) TestClosePeriod_ReturnsNewState() {
	manager := domain.Actor{UserID: "manager-1", Role: domain.RoleManager}
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}
	suite.periods.On("ClosePeriod", mock.Anything, key, manager).Return(nil).Once()
	suite.periods.On("ListPeriods", mock.Anything, 2024).
		Return([]domain.FinancialPeriod{march2024(domain.PeriodClosed)}, nil).Once()

	w := suite.doAs(manager, http.MethodPost, "/api/v1/periods/2024/3/close", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"CLOSED"`)
}

func (suite *HandlerTestSuite) TestClosePeriod_PendingEntries() {
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}
	suite.periods.On("ClosePeriod", mock.Anything, key, suite.actor).Return(&apperrors.WorkflowError{
		Kind:    apperrors.KindPendingEntries,
		Subject: key.String(),
		Message: "2 entries are not yet posted, rejected or cancelled",
	}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/2024/3/close", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(string(apperrors.KindPendingEntries), suite.decodeError(w).Reason)
}

func (suite *HandlerTestSuite) TestLockPeriod_BadPathParams() {
	w := suite.do(http.MethodPost, "/api/v1/periods/2024/13/lock", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/periods/last/3/lock", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestReopenPeriod_LockedIsTerminal() {
	admin := domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}
	suite.periods.On("ReopenPeriod", mock.Anything, key, admin).
		Return(apperrors.IllegalTransition("period "+key.String(), string(domain.PeriodLocked), string(domain.PeriodOpen))).Once()

	w := suite.doAs(admin, http.MethodPost, "/api/v1/periods/2024/3/reopen", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestPeriodStatus_ByDate() {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	suite.periods.On("PeriodStatus", mock.Anything, mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(date)
	})).Return(domain.PeriodClosed, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods/status?date=2024-03-15", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"CLOSED"`)
}

func (suite *HandlerTestSuite) TestPeriodStatus_BadDate() {
	w := suite.do(http.MethodGet, "/api/v1/periods/status?date=15/03/2024", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestPeriodStatus_NoPeriod() {
	suite.periods.On("PeriodStatus", mock.Anything, mock.Anything).
		Return(domain.PeriodStatus(""), apperrors.ErrNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods/status?date=1999-01-01", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestTrialBalance_ServedFromCache() {
	suite.trialBalance.On("GetTrialBalance", mock.Anything, 2024, 3).Return(balancedTrialBalance(), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/trial-balance/2024/3", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"isBalanced":true`)
	suite.Contains(w.Body.String(), `"closing":{"debit":"100","credit":"100"}`)
	suite.trialBalance.AssertNotCalled(suite.T(), "ComputeTrialBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestTrialBalance_RefreshRecomputes() {
	suite.trialBalance.On("ComputeTrialBalance", mock.Anything, 2024, 3).Return(balancedTrialBalance(), nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/trial-balance/2024/3?refresh=true", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.trialBalance.AssertNotCalled(suite.T(), "GetTrialBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestTrialBalance_PeriodOutOfRange() {
	w := suite.do(http.MethodGet, "/api/v1/trial-balance/2024/13", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestTrialBalance_ConsistencyFailure() {
	suite.trialBalance.On("GetTrialBalance", mock.Anything, 2024, 3).Return(nil, &apperrors.ConsistencyError{
		FiscalYear: 2024, FiscalPeriod: 3, Debits: "100.00", Credits: "90.00",
		Message: "debit-normal and credit-normal closing balances do not match",
	}).Once()

	w := suite.do(http.MethodGet, "/api/v1/trial-balance/2024/3", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("consistency", suite.decodeError(w).Reason)
}
