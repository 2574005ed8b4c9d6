package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/handlers"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
	"github.com/SscSPs/ipsas_ledger/internal/utils/pagination"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testSecret = "test-secret-key-that-is-long-enough"
	testIssuer = "ipsas-ledger-test"
)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	accounts     *MockAccountService
	journal      *MockJournalService
	periods      *MockPeriodService
	trialBalance *MockTrialBalanceService
	actor        domain.Actor
}

func (suite *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	v, ok := binding.Validator.Engine().(*validator.Validate)
	suite.Require().True(ok)
	suite.Require().NoError(dto.RegisterValidators(v))
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.router = gin.New()
	suite.accounts = new(MockAccountService)
	suite.journal = new(MockJournalService)
	suite.periods = new(MockPeriodService)
	suite.trialBalance = new(MockTrialBalanceService)
	suite.actor = domain.Actor{UserID: "user-1", Role: domain.RoleAccountant}

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(testSecret, testIssuer))
	handlers.RegisterAccountRoutes(v1, suite.accounts)
	handlers.RegisterEntryRoutes(v1, suite.journal)
	handlers.RegisterPeriodRoutes(v1, suite.periods)
	handlers.RegisterLedgerRoutes(v1, suite.trialBalance, suite.periods)
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.accounts.AssertExpectations(suite.T())
	suite.journal.AssertExpectations(suite.T())
	suite.periods.AssertExpectations(suite.T())
	suite.trialBalance.AssertExpectations(suite.T())
}

// generateTestToken creates a signed JWT for the given user and role.
func (suite *HandlerTestSuite) generateTestToken(userID string, role domain.Role) string {
	claims := middleware.LedgerClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	return suite.doAs(suite.actor, method, url, body)
}

func (suite *HandlerTestSuite) doAs(actor domain.Actor, method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	suite.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.UserID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(actor.UserID, actor.Role))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.ErrorResponse {
	var body dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func testAccount(number string, t domain.AccountType) *domain.Account {
	nb, _ := domain.NormalBalanceFor(t)
	return &domain.Account{
		AccountNumber:  number,
		Name:           "Account " + number,
		AccountType:    t,
		NormalBalance:  nb,
		OpeningBalance: decimal.Zero,
		CurrentBalance: decimal.NewFromInt(100),
		IsActive:       true,
	}
}

// --- Authentication ---

func (suite *HandlerTestSuite) TestMissingToken_Unauthorized() {
	w := suite.doAs(domain.Actor{}, http.MethodGet, "/api/v1/accounts", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "ListAccounts", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestUnknownRole_Forbidden() {
	w := suite.doAs(domain.Actor{UserID: "user-1", Role: "intern"}, http.MethodGet, "/api/v1/accounts", nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

// --- Accounts ---

func (suite *HandlerTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset, OpeningBalance: decimal.NewFromInt(0)}
	suite.accounts.On("CreateAccount", mock.Anything, mock.MatchedBy(func(r dto.CreateAccountRequest) bool {
		return r.AccountNumber == "1010" && r.AccountType == domain.Asset
	}), suite.actor).Return(testAccount("1010", domain.Asset), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", req)

	suite.Equal(http.StatusCreated, w.Code)
	var body dto.AccountResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("1010", body.AccountNumber)
	suite.Equal(domain.DebitNormal, body.NormalBalance)
}

func (suite *HandlerTestSuite) TestCreateAccount_InvalidTypeRejectedByBinding() {
	body := map[string]any{"accountNumber": "1010", "name": "Cash", "accountType": "EQUITYISH"}

	w := suite.do(http.MethodPost, "/api/v1/accounts", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateAccount_OpeningBalanceScaleRejected() {
	body := map[string]any{"accountNumber": "1010", "name": "Cash", "accountType": "ASSET", "openingBalance": "10.123"}

	w := suite.do(http.MethodPost, "/api/v1/accounts", body)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateAccount_Duplicate() {
	req := dto.CreateAccountRequest{AccountNumber: "1010", Name: "Cash", AccountType: domain.Asset}
	suite.accounts.On("CreateAccount", mock.Anything, mock.Anything, suite.actor).
		Return(nil, fmt.Errorf("%w: account 1010", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", req)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGetAccount_NotFound() {
	suite.accounts.On("GetAccount", mock.Anything, "9999", suite.actor).
		Return(nil, fmt.Errorf("%w: account 9999", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/9999", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestListAccounts_DefaultPaging() {
	accounts := []domain.Account{*testAccount("1010", domain.Asset), *testAccount("4010", domain.Revenue)}
	suite.accounts.On("ListAccounts", mock.Anything, dto.ListAccountsParams{Limit: 50, Offset: 0}, suite.actor).
		Return(accounts, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts", nil)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ListAccountsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Len(body.Accounts, 2)
	suite.Equal(50, body.Limit)
}

func (suite *HandlerTestSuite) TestListAccounts_ContinuationToken() {
	page := []domain.Account{*testAccount("2010", domain.Liability), *testAccount("3010", domain.Equity)}
	suite.accounts.On("ListAccounts", mock.Anything, dto.ListAccountsParams{Limit: 2, Offset: 2}, suite.actor).
		Return(page, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts?limit=2&nextToken="+pagination.EncodeOffsetToken(2, "1020"), nil)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ListAccountsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(2, body.Offset)
	offset, lastKey, err := pagination.DecodeOffsetToken(body.NextToken)
	suite.NoError(err)
	suite.Equal(4, offset)
	suite.Equal("3010", lastKey)
}

func (suite *HandlerTestSuite) TestListAccounts_BadToken() {
	w := suite.do(http.MethodGet, "/api/v1/accounts?nextToken=%21%21", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListAccounts_LimitOutOfRange() {
	w := suite.do(http.MethodGet, "/api/v1/accounts?limit=1000", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteAccount_Referenced() {
	suite.accounts.On("DeleteAccount", mock.Anything, "1010", suite.actor).
		Return(fmt.Errorf("%w: account 1010", apperrors.ErrReferenced)).Once()

	w := suite.do(http.MethodDelete, "/api/v1/accounts/1010", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestDeactivateAccount_Success() {
	suite.accounts.On("DeactivateAccount", mock.Anything, "1010", suite.actor).Return(nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/1010/deactivate", nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestDeactivateAccount_Forbidden() {
	viewer := domain.Actor{UserID: "viewer-1", Role: domain.RoleViewer}
	suite.accounts.On("DeactivateAccount", mock.Anything, "1010", viewer).
		Return(apperrors.Forbidden("account 1010", viewer.UserID, "deactivate")).Once()

	w := suite.doAs(viewer, http.MethodPost, "/api/v1/accounts/1010/deactivate", nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
