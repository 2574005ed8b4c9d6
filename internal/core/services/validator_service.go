package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/ipsas_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/utils/accounting"
)

// validatorService enforces the structural and monetary rules on a candidate entry.
type validatorService struct {
	BaseService
	accounts portsrepo.AccountReader
	periods  portssvc.PeriodGateSvc
}

// NewValidatorService creates the journal entry validator.
func NewValidatorService(accounts portsrepo.AccountReader, periods portssvc.PeriodGateSvc, opts ...ServiceOption) portssvc.EntryValidatorSvc {
	return &validatorService{
		BaseService: newBaseService(buildOptions(opts)),
		accounts:    accounts,
		periods:     periods,
	}
}

var _ portssvc.EntryValidatorSvc = (*validatorService)(nil)

// Validate runs the checks in a fixed order and stops at the first failing rule,
// reporting every line that fails it.
func (s *validatorService) Validate(ctx context.Context, entry domain.JournalEntry) error {
	if len(entry.Lines) == 0 {
		return apperrors.NewValidationError(apperrors.RuleNoLines, "entry must have at least one line")
	}

	if err := checkLineAmounts(entry.Lines); err != nil {
		return err
	}

	if err := s.checkAccounts(ctx, entry); err != nil {
		return err
	}

	debits, credits := entry.Sums()
	if !debits.Equal(credits) {
		return apperrors.NewValidationError(apperrors.RuleUnbalanced,
			fmt.Sprintf("debits %s do not equal credits %s", debits.StringFixed(2), credits.StringFixed(2)))
	}

	if entry.FiscalPeriod < 1 || entry.FiscalPeriod > 12 {
		return apperrors.NewValidationError(apperrors.RuleFiscalPeriod,
			fmt.Sprintf("fiscal period %d is outside 1-12", entry.FiscalPeriod))
	}

	if entry.EntryDate.IsZero() {
		return apperrors.NewValidationError(apperrors.RuleMissingEntryDate, "entry date is required")
	}
	period, err := s.periods.EnsureDateOpen(ctx, entry.EntryDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodNotOpen) {
			return apperrors.NewValidationError(apperrors.RulePeriodNotOpen, err.Error())
		}
		s.LogError(ctx, err, "Period lookup failed during validation")
		return err
	}
	if period.Key() != entry.Period() {
		return apperrors.NewValidationError(apperrors.RulePeriodMismatch,
			fmt.Sprintf("entry date falls in period %s but entry is booked to %s", period.Key(), entry.Period()))
	}

	return nil
}

func checkLineAmounts(lines []domain.JournalEntryLine) error {
	var bad, scale []int
	for i, l := range lines {
		n := lineNumber(l, i)
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() ||
			l.DebitAmount.IsPositive() == l.CreditAmount.IsPositive() {
			bad = append(bad, n)
			continue
		}
		if !accounting.HasScaleAtMost(l.DebitAmount, 2) || !accounting.HasScaleAtMost(l.CreditAmount, 2) {
			scale = append(scale, n)
		}
	}
	if len(bad) > 0 {
		return apperrors.NewValidationError(apperrors.RuleLineAmounts,
			"each line needs exactly one positive debit or credit amount and no negative amounts", bad...)
	}
	if len(scale) > 0 {
		return apperrors.NewValidationError(apperrors.RuleAmountScale, "amounts may carry at most 2 decimal places", scale...)
	}
	return nil
}

func (s *validatorService) checkAccounts(ctx context.Context, entry domain.JournalEntry) error {
	found, err := s.accounts.FindAccountsByNumbers(ctx, entry.AccountNumbers())
	if err != nil {
		s.LogError(ctx, err, "Failed to load accounts for validation", slog.String("entry_id", entry.EntryID))
		return err
	}

	var unknown, inactive []int
	for i, l := range entry.Lines {
		acc, ok := found[l.AccountNumber]
		switch {
		case !ok:
			unknown = append(unknown, lineNumber(l, i))
		case !acc.IsActive:
			inactive = append(inactive, lineNumber(l, i))
		}
	}
	if len(unknown) > 0 {
		return apperrors.NewValidationError(apperrors.RuleUnknownAccount, "referenced account does not exist", unknown...)
	}
	if len(inactive) > 0 {
		return apperrors.NewValidationError(apperrors.RuleInactiveAccount, "referenced account is inactive", inactive...)
	}
	return nil
}

// lineNumber falls back to the 1-based position for candidates that are not yet numbered.
func lineNumber(l domain.JournalEntryLine, idx int) int {
	if l.LineNumber > 0 {
		return l.LineNumber
	}
	return idx + 1
}
