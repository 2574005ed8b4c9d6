package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// trialBalanceService derives per-period trial balances from posted data.
// It never writes to accounts or entries.
type trialBalanceService struct {
	BaseService
	repo  portsrepo.TrialBalanceRepository
	cache ports.TrialBalanceCache
	group singleflight.Group
}

// NewTrialBalanceService creates the trial balance aggregator.
func NewTrialBalanceService(repo portsrepo.TrialBalanceRepository, opts ...ServiceOption) portssvc.TrialBalanceSvc {
	o := buildOptions(opts)
	return &trialBalanceService{
		BaseService: newBaseService(o),
		repo:        repo,
		cache:       o.cache,
	}
}

var _ portssvc.TrialBalanceSvc = (*trialBalanceService)(nil)

func (s *trialBalanceService) GetTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	key := domain.PeriodKey{FiscalYear: fiscalYear, PeriodNumber: fiscalPeriod}
	if s.cache != nil {
		tb, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.LogWarn(ctx, "Trial balance cache read failed", slog.String("period", key.String()), slog.String("error", err.Error()))
		} else if ok {
			return tb, nil
		}
	}
	return s.ComputeTrialBalance(ctx, fiscalYear, fiscalPeriod)
}

// ComputeTrialBalance recomputes from committed posted data. Identical concurrent requests
// share one computation.
func (s *trialBalanceService) ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	if fiscalPeriod < 1 || fiscalPeriod > 12 {
		return nil, fmt.Errorf("%w: fiscal period %d is outside 1-12", apperrors.ErrValidation, fiscalPeriod)
	}
	key := domain.PeriodKey{FiscalYear: fiscalYear, PeriodNumber: fiscalPeriod}

	v, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		return s.compute(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TrialBalance), nil
}

func (s *trialBalanceService) VerifyPeriod(ctx context.Context, period domain.FinancialPeriod) (*domain.TrialBalance, error) {
	key := period.Key()
	var stored *domain.TrialBalance
	if period.Status != domain.PeriodOpen {
		snap, err := s.repo.FindTrialBalance(ctx, key)
		switch {
		case err == nil:
			stored = snap
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
	}

	tb, err := s.ComputeTrialBalance(ctx, key.FiscalYear, key.PeriodNumber)
	if err != nil {
		return nil, err
	}

	frozenAt := period.ClosedAt
	if frozenAt == nil {
		frozenAt = period.LockedAt
	}
	if stored == nil || frozenAt == nil || stored.GeneratedAt.Before(*frozenAt) {
		return tb, nil
	}
	if !stored.TotalClosingDebit.Equal(tb.TotalClosingDebit) || !stored.TotalClosingCredit.Equal(tb.TotalClosingCredit) {
		cErr := &apperrors.ConsistencyError{
			FiscalYear:   key.FiscalYear,
			FiscalPeriod: key.PeriodNumber,
			Debits:       tb.TotalClosingDebit.StringFixed(2),
			Credits:      tb.TotalClosingCredit.StringFixed(2),
			Message: fmt.Sprintf("closing totals changed after the period was %s (snapshot debits %s, credits %s)",
				period.Status, stored.TotalClosingDebit.StringFixed(2), stored.TotalClosingCredit.StringFixed(2)),
		}
		s.reportConsistency(ctx, cErr)
		return nil, cErr
	}
	return tb, nil
}

func (s *trialBalanceService) compute(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, error) {
	start := time.Now()

	var generation string
	if s.cache != nil {
		g, err := s.cache.Generation(ctx)
		if err != nil {
			s.LogWarn(ctx, "Trial balance cache unavailable", slog.String("error", err.Error()))
		} else {
			generation = g
		}
	}

	inputs, err := s.repo.LoadTrialBalanceInputs(ctx, key)
	if err != nil {
		s.LogError(ctx, err, "Failed to load trial balance inputs", slog.String("period", key.String()))
		return nil, err
	}

	tb := BuildTrialBalance(key, inputs, s.Now())
	if s.metrics != nil {
		s.metrics.ObserveTrialBalance(tb.IsBalanced, time.Since(start))
	}
	if !tb.IsBalanced {
		cErr := &apperrors.ConsistencyError{
			FiscalYear:   key.FiscalYear,
			FiscalPeriod: key.PeriodNumber,
			Debits:       tb.DebitNormalTotal.StringFixed(2),
			Credits:      tb.CreditNormalTotal.StringFixed(2),
			Message:      "debit-normal and credit-normal closing balances do not match",
		}
		if !tb.TotalPeriodDebit.Equal(tb.TotalPeriodCredit) {
			cErr.Message = fmt.Sprintf("posted period movement does not balance (debits %s, credits %s)",
				tb.TotalPeriodDebit.StringFixed(2), tb.TotalPeriodCredit.StringFixed(2))
		}
		s.reportConsistency(ctx, cErr)
		return nil, cErr
	}

	if err := s.repo.SaveTrialBalance(ctx, *tb); err != nil {
		s.LogError(ctx, err, "Failed to save trial balance snapshot", slog.String("period", key.String()))
	}
	if s.cache != nil && generation != "" {
		if err := s.cache.Set(ctx, generation, *tb); err != nil {
			s.LogWarn(ctx, "Failed to cache trial balance", slog.String("period", key.String()), slog.String("error", err.Error()))
		}
	}
	return tb, nil
}

// reportConsistency logs a ledger integrity defect as a system event.
func (s *trialBalanceService) reportConsistency(ctx context.Context, err *apperrors.ConsistencyError) {
	s.LogError(ctx, err, "LEDGER CONSISTENCY FAILURE: operator intervention required",
		slog.String("event", "ledger.consistency_error"),
		slog.Int("fiscal_year", err.FiscalYear),
		slog.Int("fiscal_period", err.FiscalPeriod))
}

// BuildTrialBalance is the pure aggregation step. Accounts with no opening balance and
// no movement are left out. Lines are ordered by account number.
func BuildTrialBalance(key domain.PeriodKey, inputs *domain.TrialBalanceInputs, generatedAt time.Time) *domain.TrialBalance {
	accounts := append([]domain.Account(nil), inputs.Accounts...)
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountNumber < accounts[j].AccountNumber })

	tb := &domain.TrialBalance{
		FiscalYear:         key.FiscalYear,
		FiscalPeriod:       key.PeriodNumber,
		Lines:              make([]domain.TrialBalanceLine, 0, len(accounts)),
		TotalOpeningDebit:  decimal.Zero,
		TotalOpeningCredit: decimal.Zero,
		TotalPeriodDebit:   decimal.Zero,
		TotalPeriodCredit:  decimal.Zero,
		TotalClosingDebit:  decimal.Zero,
		TotalClosingCredit: decimal.Zero,
		DebitNormalTotal:   decimal.Zero,
		CreditNormalTotal:  decimal.Zero,
		Totals: domain.StatementTotals{
			Assets: decimal.Zero, Liabilities: decimal.Zero, Equity: decimal.Zero,
			Revenue: decimal.Zero, Expenses: decimal.Zero, NetSurplus: decimal.Zero,
		},
		GeneratedAt: generatedAt,
	}

	zero := domain.Movement{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, acc := range accounts {
		prior, ok := inputs.Prior[acc.AccountNumber]
		if !ok {
			prior = zero
		}
		current, ok := inputs.Current[acc.AccountNumber]
		if !ok {
			current = zero
		}

		opening := acc.OpeningBalance.Add(accounting.SignedDelta(acc.NormalBalance, prior))
		closing := opening.Add(accounting.SignedDelta(acc.NormalBalance, current))
		if opening.IsZero() && current.Debit.IsZero() && current.Credit.IsZero() {
			continue
		}

		openDr, openCr := accounting.SplitColumns(acc.NormalBalance, opening)
		closeDr, closeCr := accounting.SplitColumns(acc.NormalBalance, closing)
		tb.Lines = append(tb.Lines, domain.TrialBalanceLine{
			AccountNumber: acc.AccountNumber,
			AccountName:   acc.Name,
			AccountType:   acc.AccountType,
			NormalBalance: acc.NormalBalance,
			OpeningDebit:  openDr,
			OpeningCredit: openCr,
			PeriodDebit:   current.Debit,
			PeriodCredit:  current.Credit,
			ClosingDebit:  closeDr,
			ClosingCredit: closeCr,
			Closing:       closing,
		})

		tb.TotalOpeningDebit = tb.TotalOpeningDebit.Add(openDr)
		tb.TotalOpeningCredit = tb.TotalOpeningCredit.Add(openCr)
		tb.TotalPeriodDebit = tb.TotalPeriodDebit.Add(current.Debit)
		tb.TotalPeriodCredit = tb.TotalPeriodCredit.Add(current.Credit)
		tb.TotalClosingDebit = tb.TotalClosingDebit.Add(closeDr)
		tb.TotalClosingCredit = tb.TotalClosingCredit.Add(closeCr)

		if acc.IsDebitNormal() {
			tb.DebitNormalTotal = tb.DebitNormalTotal.Add(closing)
		} else {
			tb.CreditNormalTotal = tb.CreditNormalTotal.Add(closing)
		}

		switch acc.AccountType {
		case domain.Asset:
			tb.Totals.Assets = tb.Totals.Assets.Add(closing)
		case domain.Liability:
			tb.Totals.Liabilities = tb.Totals.Liabilities.Add(closing)
		case domain.Equity:
			tb.Totals.Equity = tb.Totals.Equity.Add(closing)
		case domain.Revenue:
			tb.Totals.Revenue = tb.Totals.Revenue.Add(closing)
		case domain.Expense:
			tb.Totals.Expenses = tb.Totals.Expenses.Add(closing)
		}
	}

	tb.Totals.NetSurplus = tb.Totals.Revenue.Sub(tb.Totals.Expenses)
	tb.IsBalanced = tb.DebitNormalTotal.Equal(tb.CreditNormalTotal) &&
		tb.TotalPeriodDebit.Equal(tb.TotalPeriodCredit)
	return tb
}
