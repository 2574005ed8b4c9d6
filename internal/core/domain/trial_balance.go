package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is the posted debit and credit activity on an account.
type Movement struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Add returns the sum of two movements.
func (m Movement) Add(o Movement) Movement {
	return Movement{Debit: m.Debit.Add(o.Debit), Credit: m.Credit.Add(o.Credit)}
}

// TrialBalanceInputs is a consistent snapshot of everything needed to build a trial balance.
type TrialBalanceInputs struct {
	Accounts []Account
	Prior    map[string]Movement // posted movement in periods strictly before the target
	Current  map[string]Movement // posted movement in the target period
}

// TrialBalanceLine carries the per-account columns of a trial balance.
type TrialBalanceLine struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   AccountType     `json:"accountType"`
	NormalBalance NormalBalance   `json:"normalBalance"`
	OpeningDebit  decimal.Decimal `json:"openingDebit"`
	OpeningCredit decimal.Decimal `json:"openingCredit"`
	PeriodDebit   decimal.Decimal `json:"periodDebit"`
	PeriodCredit  decimal.Decimal `json:"periodCredit"`
	ClosingDebit  decimal.Decimal `json:"closingDebit"`
	ClosingCredit decimal.Decimal `json:"closingCredit"`
	// Closing is the closing balance in the account's normal direction.
	Closing decimal.Decimal `json:"closing"`
}

// StatementTotals are the category sums consumed by statement generation.
type StatementTotals struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expenses    decimal.Decimal `json:"expenses"`
	NetSurplus  decimal.Decimal `json:"netSurplus"`
}

// TrialBalance is a derived per-period snapshot of all account balances.
type TrialBalance struct {
	FiscalYear   int                `json:"fiscalYear"`
	FiscalPeriod int                `json:"fiscalPeriod"`
	Lines        []TrialBalanceLine `json:"lines"`

	TotalOpeningDebit  decimal.Decimal `json:"totalOpeningDebit"`
	TotalOpeningCredit decimal.Decimal `json:"totalOpeningCredit"`
	TotalPeriodDebit   decimal.Decimal `json:"totalPeriodDebit"`
	TotalPeriodCredit  decimal.Decimal `json:"totalPeriodCredit"`
	TotalClosingDebit  decimal.Decimal `json:"totalClosingDebit"`
	TotalClosingCredit decimal.Decimal `json:"totalClosingCredit"`

	// DebitNormalTotal and CreditNormalTotal sum closing balances by polarity.
	DebitNormalTotal  decimal.Decimal `json:"debitNormalTotal"`
	CreditNormalTotal decimal.Decimal `json:"creditNormalTotal"`

	IsBalanced  bool            `json:"isBalanced"`
	Totals      StatementTotals `json:"totals"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Key returns the period the trial balance covers.
func (tb TrialBalance) Key() PeriodKey {
	return PeriodKey{FiscalYear: tb.FiscalYear, PeriodNumber: tb.FiscalPeriod}
}
