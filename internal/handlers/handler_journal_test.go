package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func cashReceipt() map[string]any {
	return map[string]any{
		"entryDate":    "2024-03-15T00:00:00Z",
		"fiscalYear":   2024,
		"fiscalPeriod": 3,
		"description":  "Grant received",
		"lines": []map[string]any{
			{"accountNumber": "1010", "debitAmount": "100.00", "creditAmount": "0"},
			{"accountNumber": "4010", "debitAmount": "0", "creditAmount": "100.00"},
		},
	}
}

func draftEntry(id string) *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:      id,
		EntryNumber:  "JE2024030001",
		EntryDate:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		FiscalYear:   2024,
		FiscalPeriod: 3,
		EntryType:    domain.EntryRegular,
		Status:       domain.StatusDraft,
		TotalDebits:  decimal.NewFromInt(100),
		TotalCredits: decimal.NewFromInt(100),
		Lines: []domain.JournalEntryLine{
			{EntryID: id, LineNumber: 1, AccountNumber: "1010", DebitAmount: decimal.NewFromInt(100), CreditAmount: decimal.Zero},
			{EntryID: id, LineNumber: 2, AccountNumber: "4010", DebitAmount: decimal.Zero, CreditAmount: decimal.NewFromInt(100)},
		},
	}
}

func (suite *HandlerTestSuite) TestCreateDraft_Success() {
	suite.journal.On("CreateDraft", mock.Anything, mock.MatchedBy(func(r dto.EntryRequest) bool {
		return len(r.Lines) == 2 && r.Lines[0].DebitAmount.Equal(decimal.NewFromInt(100)) && r.FiscalPeriod == 3
	}), suite.actor).Return(draftEntry("e-1"), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries", cashReceipt())

	suite.Equal(http.StatusCreated, w.Code)
	suite.Contains(w.Body.String(), `"entryNumber":"JE2024030001"`)
	suite.Contains(w.Body.String(), `"status":"DRAFT"`)
}

func (suite *HandlerTestSuite) TestCreateDraft_MissingDate() {
	body := cashReceipt()
	delete(body, "entryDate")

	w := suite.do(http.MethodPost, "/api/v1/entries", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.journal.AssertNotCalled(suite.T(), "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestValidateEntry_Passes() {
	suite.journal.On("Validate", mock.Anything, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.Status == domain.StatusDraft && e.EntryType == domain.EntryRegular && e.Lines[1].LineNumber == 2
	})).Return(nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/validate", cashReceipt())

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"valid":true`)
	suite.Contains(w.Body.String(), `"totalDebits":"100"`)
}

func (suite *HandlerTestSuite) TestValidateEntry_Unbalanced() {
	suite.journal.On("Validate", mock.Anything, mock.Anything).
		Return(apperrors.NewValidationError(apperrors.RuleUnbalanced, "debits 100.00 do not equal credits 90.00")).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/validate", cashReceipt())

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	body := suite.decodeError(w)
	suite.Equal(string(apperrors.RuleUnbalanced), body.Rule)
}

func (suite *HandlerTestSuite) TestSubmit_ValidationFailureReportsLines() {
	suite.journal.On("Submit", mock.Anything, "e-1", suite.actor).
		Return(domain.EntryStatus(""), apperrors.NewValidationError(apperrors.RuleInactiveAccount, "referenced account is inactive", 2)).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/submit", nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	body := suite.decodeError(w)
	suite.Equal(string(apperrors.RuleInactiveAccount), body.Rule)
	suite.Equal([]int{2}, body.Lines)
}

func (suite *HandlerTestSuite) TestSubmit_IllegalTransition() {
	suite.journal.On("Submit", mock.Anything, "e-1", suite.actor).
		Return(domain.EntryStatus(""), apperrors.IllegalTransition("entry e-1", string(domain.StatusPosted), string(domain.StatusPending))).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/submit", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestApprove_Success() {
	manager := domain.Actor{UserID: "manager-1", Role: domain.RoleManager}
	suite.journal.On("Approve", mock.Anything, "e-1", manager, domain.ActionApprove, "looks right").
		Return(domain.StatusApproved, nil).Once()

	w := suite.doAs(manager, http.MethodPost, "/api/v1/entries/e-1/approve",
		map[string]any{"decision": "APPROVE", "comments": "looks right"})

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"APPROVED"`)
}

func (suite *HandlerTestSuite) TestApprove_UnknownDecision() {
	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/approve", map[string]any{"decision": "MAYBE"})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestApprove_ForbiddenForAccountant() {
	suite.journal.On("Approve", mock.Anything, "e-1", suite.actor, domain.ActionApprove, "").
		Return(domain.EntryStatus(""), apperrors.Forbidden("entry e-1", suite.actor.UserID, "approve")).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/approve", map[string]any{"decision": "APPROVE"})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestPost_ReturnsReceipt() {
	receipt := &domain.PostedReceipt{
		EntryID:      "e-1",
		EntryNumber:  "JE2024030001",
		FiscalYear:   2024,
		FiscalPeriod: 3,
		PostedBy:     suite.actor.UserID,
		PostedAt:     time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC),
		BalanceChanges: []domain.BalanceChange{
			{AccountNumber: "1010", Delta: decimal.NewFromInt(100), NewBalance: decimal.NewFromInt(100)},
			{AccountNumber: "4010", Delta: decimal.NewFromInt(100), NewBalance: decimal.NewFromInt(100)},
		},
	}
	suite.journal.On("Post", mock.Anything, "e-1", suite.actor).Return(receipt, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/post", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"entryNumber":"JE2024030001"`)
	suite.Contains(w.Body.String(), `"balanceChanges"`)
}

func (suite *HandlerTestSuite) TestPost_AlreadyPosted() {
	suite.journal.On("Post", mock.Anything, "e-1", suite.actor).
		Return(nil, &apperrors.PostingError{EntryID: "e-1", Reason: apperrors.ReasonAlreadyPosted}).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(string(apperrors.ReasonAlreadyPosted), suite.decodeError(w).Reason)
}

func (suite *HandlerTestSuite) TestPost_InactiveAccountReportsReason() {
	suite.journal.On("Post", mock.Anything, "e-1", suite.actor).
		Return(nil, &apperrors.PostingError{
			EntryID: "e-1", Reason: apperrors.ReasonAccountInactive, LineNumber: 2, AccountNumber: "4010",
		}).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(string(apperrors.ReasonAccountInactive), suite.decodeError(w).Reason)
}

func (suite *HandlerTestSuite) TestPost_TimeoutIsUnavailable() {
	suite.journal.On("Post", mock.Anything, "e-1", suite.actor).
		Return(nil, &apperrors.PostingError{EntryID: "e-1", Reason: apperrors.ReasonAborted, Err: context.DeadlineExceeded}).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/post", nil)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *HandlerTestSuite) TestPost_StoreFailureIsServerError() {
	suite.journal.On("Post", mock.Anything, "e-1", suite.actor).
		Return(nil, &apperrors.PostingError{EntryID: "e-1", Reason: apperrors.ReasonStore, Err: errors.New("connection reset")}).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/post", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal(string(apperrors.ReasonStore), suite.decodeError(w).Reason)
}

func (suite *HandlerTestSuite) TestCancel_WithoutBody() {
	suite.journal.On("Cancel", mock.Anything, "e-1", suite.actor, "").Return(domain.StatusCancelled, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/cancel", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"CANCELLED"`)
}

func (suite *HandlerTestSuite) TestCancel_WithReason() {
	suite.journal.On("Cancel", mock.Anything, "e-1", suite.actor, "duplicate").Return(domain.StatusCancelled, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/cancel", map[string]any{"reason": "duplicate"})

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestReverse_CreatesDraft() {
	reverseDate := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	reversal := draftEntry("e-2")
	reversal.ReferenceNumber = "JE2024030001"
	suite.journal.On("Reverse", mock.Anything, "e-1", suite.actor, mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(reverseDate)
	}), "").Return(reversal, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/e-1/reverse", map[string]any{"reverseDate": "2024-04-02T00:00:00Z"})

	suite.Equal(http.StatusCreated, w.Code)
	suite.Contains(w.Body.String(), `"referenceNumber":"JE2024030001"`)
}

func (suite *HandlerTestSuite) TestGetEntry_NotFound() {
	suite.journal.On("GetEntry", mock.Anything, "missing", suite.actor).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/entries/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateDraft_NotDraft() {
	suite.journal.On("UpdateDraft", mock.Anything, "e-1", mock.Anything, suite.actor).
		Return(nil, apperrors.IllegalTransition("entry e-1", string(domain.StatusPending), "edit")).Once()

	w := suite.do(http.MethodPut, "/api/v1/entries/e-1", cashReceipt())

	suite.Equal(http.StatusConflict, w.Code)
}
