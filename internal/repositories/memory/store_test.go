package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/ipsas_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	now   time.Time
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for _, acc := range []domain.Account{
		{AccountNumber: "1000", Name: "Cash", AccountType: domain.Asset, NormalBalance: domain.DebitNormal, IsActive: true},
		{AccountNumber: "4000", Name: "Revenue", AccountType: domain.Revenue, NormalBalance: domain.CreditNormal, IsActive: true},
	} {
		acc.OpeningBalance, acc.CurrentBalance = decimal.Zero, decimal.Zero
		suite.Require().NoError(suite.store.SaveAccount(suite.ctx, acc))
	}
	suite.Require().NoError(suite.store.SavePeriod(suite.ctx, domain.FinancialPeriod{
		FiscalYear: 2024, PeriodNumber: 3, Name: "March 2024",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}))
}

func (suite *StoreTestSuite) entry(id string, status domain.EntryStatus, period int) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID: id, EntryNumber: "JE-" + id,
		EntryDate:  time.Date(2024, time.Month(period), 10, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2024, FiscalPeriod: period,
		EntryType: domain.EntryRegular, Status: status,
		Lines: []domain.JournalEntryLine{
			{EntryID: id, LineNumber: 1, AccountNumber: "1000", DebitAmount: decimal.NewFromInt(100), CreditAmount: decimal.Zero},
			{EntryID: id, LineNumber: 2, AccountNumber: "4000", DebitAmount: decimal.Zero, CreditAmount: decimal.NewFromInt(100)},
		},
		AuditFields: domain.AuditFields{CreatedBy: "author"},
	}
}

func (suite *StoreTestSuite) TestSaveAccount_Duplicate() {
	err := suite.store.SaveAccount(suite.ctx, domain.Account{AccountNumber: "1000"})
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *StoreTestSuite) TestListAccounts_OrderedAndPaged() {
	suite.Require().NoError(suite.store.SaveAccount(suite.ctx, domain.Account{AccountNumber: "2000"}))

	all, err := suite.store.ListAccounts(suite.ctx, 10, 0)
	suite.Require().NoError(err)
	suite.Require().Len(all, 3)
	suite.Equal([]string{"1000", "2000", "4000"}, []string{all[0].AccountNumber, all[1].AccountNumber, all[2].AccountNumber})

	page, err := suite.store.ListAccounts(suite.ctx, 1, 1)
	suite.Require().NoError(err)
	suite.Require().Len(page, 1)
	suite.Equal("2000", page[0].AccountNumber)

	empty, err := suite.store.ListAccounts(suite.ctx, 10, 5)
	suite.Require().NoError(err)
	suite.Empty(empty)
}

func (suite *StoreTestSuite) TestDeleteAccount_RefusedWhenPosted() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusPosted, 3)))

	err := suite.store.DeleteAccount(suite.ctx, "1000")
	suite.ErrorIs(err, apperrors.ErrReferenced)

	suite.Require().NoError(suite.store.SaveAccount(suite.ctx, domain.Account{AccountNumber: "5000"}))
	suite.NoError(suite.store.DeleteAccount(suite.ctx, "5000"))
	_, err = suite.store.FindAccountByNumber(suite.ctx, "5000")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreTestSuite) TestNextEntryNumber_PerMonth() {
	march := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	n1, _ := suite.store.NextEntryNumber(suite.ctx, march)
	n2, _ := suite.store.NextEntryNumber(suite.ctx, march)
	n3, _ := suite.store.NextEntryNumber(suite.ctx, april)

	suite.Equal("JE2024030001", n1)
	suite.Equal("JE2024030002", n2)
	suite.Equal("JE2024040001", n3)
}

func (suite *StoreTestSuite) TestNextEntryNumber_ConcurrentCallsAreUnique() {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := suite.store.NextEntryNumber(suite.ctx, date)
			suite.NoError(err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	suite.Len(seen, 50)
}

func (suite *StoreTestSuite) TestUpdateEntryStatus_CompareAndSet() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusPending, 3)))

	change := domain.StatusChange{
		EntryID: "e1", From: domain.StatusPending, To: domain.StatusApproved, ActorID: "mgr", At: suite.now,
		Approval: &domain.ApprovalRecord{EntryID: "e1", ApproverID: "mgr", Action: domain.ActionApprove, ActionAt: suite.now},
	}
	suite.Require().NoError(suite.store.UpdateEntryStatus(suite.ctx, change))
	suite.ErrorIs(suite.store.UpdateEntryStatus(suite.ctx, change), apperrors.ErrStaleState)

	got, err := suite.store.FindEntryByID(suite.ctx, "e1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, got.Status)
	suite.Require().NotNil(got.ApprovedBy)
	suite.Equal("mgr", *got.ApprovedBy)

	approvals, err := suite.store.ListApprovals(suite.ctx, "e1")
	suite.Require().NoError(err)
	suite.Len(approvals, 1)
}

func (suite *StoreTestSuite) TestReplaceDraft_OnlyDrafts() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusDraft, 3)))
	updated := suite.entry("e1", domain.StatusDraft, 3)
	updated.Description = "changed"
	updated.EntryNumber = "ignored"
	suite.Require().NoError(suite.store.ReplaceDraft(suite.ctx, updated))

	got, _ := suite.store.FindEntryByID(suite.ctx, "e1")
	suite.Equal("changed", got.Description)
	suite.Equal("JE-e1", got.EntryNumber)

	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e2", domain.StatusPending, 3)))
	suite.ErrorIs(suite.store.ReplaceDraft(suite.ctx, suite.entry("e2", domain.StatusDraft, 3)), apperrors.ErrStaleState)
}

func (suite *StoreTestSuite) TestFindEntryByID_ReturnsCopy() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusDraft, 3)))
	got, _ := suite.store.FindEntryByID(suite.ctx, "e1")
	got.Lines[0].AccountNumber = "9999"

	again, _ := suite.store.FindEntryByID(suite.ctx, "e1")
	suite.Equal("1000", again.Lines[0].AccountNumber)
}

func (suite *StoreTestSuite) TestCountNonTerminalEntries() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("draft", domain.StatusDraft, 3)))
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("posted", domain.StatusPosted, 3)))
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("april", domain.StatusPending, 4)))

	n, err := suite.store.CountNonTerminalEntries(suite.ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Equal(1, n)
}

func (suite *StoreTestSuite) TestUpdatePeriodStatus() {
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}
	suite.Require().NoError(suite.store.UpdatePeriodStatus(suite.ctx, key, domain.PeriodOpen, domain.PeriodClosed, "mgr", suite.now))
	suite.ErrorIs(suite.store.UpdatePeriodStatus(suite.ctx, key, domain.PeriodOpen, domain.PeriodClosed, "mgr", suite.now), apperrors.ErrStaleState)

	p, err := suite.store.FindPeriod(suite.ctx, key)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodClosed, p.Status)
	suite.Require().NotNil(p.ClosedAt)

	byDate, err := suite.store.FindPeriodByDate(suite.ctx, time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Equal(key, byDate.Key())

	_, err = suite.store.FindPeriodByDate(suite.ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreTestSuite) TestWithinTx_CommitsOnSuccess() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusApproved, 3)))

	err := suite.store.WithinTx(suite.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		bal, err := tx.ApplyBalanceDelta(ctx, "1000", decimal.NewFromInt(100), "acct", suite.now)
		suite.Require().NoError(err)
		suite.True(bal.Equal(decimal.NewFromInt(100)))
		return tx.UpdateEntryStatus(ctx, domain.StatusChange{EntryID: "e1", From: domain.StatusApproved, To: domain.StatusPosted, ActorID: "acct", At: suite.now})
	})
	suite.Require().NoError(err)

	acc, _ := suite.store.FindAccountByNumber(suite.ctx, "1000")
	suite.True(acc.CurrentBalance.Equal(decimal.NewFromInt(100)))
	e, _ := suite.store.FindEntryByID(suite.ctx, "e1")
	suite.Equal(domain.StatusPosted, e.Status)
}

func (suite *StoreTestSuite) TestWithinTx_RollsBackOnError() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("e1", domain.StatusApproved, 3)))
	boom := errors.New("boom")

	err := suite.store.WithinTx(suite.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.ApplyBalanceDelta(ctx, "1000", decimal.NewFromInt(100), "acct", suite.now)
		suite.Require().NoError(err)
		suite.Require().NoError(tx.UpdateEntryStatus(ctx, domain.StatusChange{EntryID: "e1", From: domain.StatusApproved, To: domain.StatusPosted}))
		return boom
	})
	suite.ErrorIs(err, boom)

	acc, _ := suite.store.FindAccountByNumber(suite.ctx, "1000")
	suite.True(acc.CurrentBalance.IsZero())
	e, _ := suite.store.FindEntryByID(suite.ctx, "e1")
	suite.Equal(domain.StatusApproved, e.Status)
}

func (suite *StoreTestSuite) TestWithinTx_CancelledContextDiscardsWrites() {
	ctx, cancel := context.WithCancel(suite.ctx)
	err := suite.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.ApplyBalanceDelta(ctx, "1000", decimal.NewFromInt(100), "acct", suite.now)
		cancel()
		return err
	})
	suite.ErrorIs(err, context.Canceled)

	acc, _ := suite.store.FindAccountByNumber(suite.ctx, "1000")
	suite.True(acc.CurrentBalance.IsZero())
}

func (suite *StoreTestSuite) TestWithinTx_InactiveAccount() {
	suite.Require().NoError(suite.store.DeactivateAccount(suite.ctx, "4000", "admin", suite.now))
	err := suite.store.WithinTx(suite.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.ApplyBalanceDelta(ctx, "4000", decimal.NewFromInt(1), "acct", suite.now)
		return err
	})
	suite.ErrorIs(err, apperrors.ErrAccountInactive)
}

func (suite *StoreTestSuite) TestLoadTrialBalanceInputs_SplitsPriorAndCurrent() {
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("feb", domain.StatusPosted, 2)))
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("mar", domain.StatusPosted, 3)))
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("mar-draft", domain.StatusApproved, 3)))
	suite.Require().NoError(suite.store.SaveEntry(suite.ctx, suite.entry("apr", domain.StatusPosted, 4)))

	inputs, err := suite.store.LoadTrialBalanceInputs(suite.ctx, domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3})
	suite.Require().NoError(err)

	suite.Len(inputs.Accounts, 2)
	suite.True(inputs.Prior["1000"].Debit.Equal(decimal.NewFromInt(100)))
	suite.True(inputs.Current["1000"].Debit.Equal(decimal.NewFromInt(100)))
	suite.True(inputs.Current["4000"].Credit.Equal(decimal.NewFromInt(100)))
}

func (suite *StoreTestSuite) TestTrialBalanceSnapshot() {
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}
	_, err := suite.store.FindTrialBalance(suite.ctx, key)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	suite.Require().NoError(suite.store.SaveTrialBalance(suite.ctx, domain.TrialBalance{FiscalYear: 2024, FiscalPeriod: 3, IsBalanced: true}))
	tb, err := suite.store.FindTrialBalance(suite.ctx, key)
	suite.Require().NoError(err)
	suite.True(tb.IsBalanced)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
