package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// Valid reports whether t is one of the five account classifications.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalanceFor derives the normal-balance polarity of an account type.
// Assets and expenses are debit-normal; liabilities, equity and revenue are credit-normal.
func NormalBalanceFor(t AccountType) (NormalBalance, error) {
	switch t {
	case Asset, Expense:
		return DebitNormal, nil
	case Liability, Equity, Revenue:
		return CreditNormal, nil
	default:
		return "", fmt.Errorf("unknown account type %q", t)
	}
}

// Account is a chart-of-accounts entry. Balances are kept in the account's
// normal-balance direction, so a positive balance is the usual state.
type Account struct {
	AccountNumber  string          `json:"accountNumber"`
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	NormalBalance  NormalBalance   `json:"normalBalance"` // set once at creation
	Description    string          `json:"description"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	AuditFields
}

// IsDebitNormal reports whether the account increases on the debit side.
func (a Account) IsDebitNormal() bool {
	return a.NormalBalance == DebitNormal
}
