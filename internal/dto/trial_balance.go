package dto

import (
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TrialBalanceLineResponse represents a row in the trial balance response
type TrialBalanceLineResponse struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	AccountType   string          `json:"accountType"`
	OpeningDebit  decimal.Decimal `json:"openingDebit"`
	OpeningCredit decimal.Decimal `json:"openingCredit"`
	PeriodDebit   decimal.Decimal `json:"periodDebit"`
	PeriodCredit  decimal.Decimal `json:"periodCredit"`
	ClosingDebit  decimal.Decimal `json:"closingDebit"`
	ClosingCredit decimal.Decimal `json:"closingCredit"`
}

// ColumnTotals sums one debit/credit column pair.
type ColumnTotals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// TrialBalanceResponse represents the trial balance response
type TrialBalanceResponse struct {
	FiscalYear   int                        `json:"fiscalYear"`
	FiscalPeriod int                        `json:"fiscalPeriod"`
	Lines        []TrialBalanceLineResponse `json:"lines"`
	Opening      ColumnTotals               `json:"opening"`
	Period       ColumnTotals               `json:"period"`
	Closing      ColumnTotals               `json:"closing"`
	IsBalanced   bool                       `json:"isBalanced"`
	Totals       domain.StatementTotals     `json:"statementTotals"`
	GeneratedAt  time.Time                  `json:"generatedAt"`
}

// ToTrialBalanceResponse converts a domain.TrialBalance to its DTO.
func ToTrialBalanceResponse(tb *domain.TrialBalance) TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Lines))
	for i, l := range tb.Lines {
		lines[i] = TrialBalanceLineResponse{
			AccountNumber: l.AccountNumber,
			AccountName:   l.AccountName,
			AccountType:   string(l.AccountType),
			OpeningDebit:  l.OpeningDebit,
			OpeningCredit: l.OpeningCredit,
			PeriodDebit:   l.PeriodDebit,
			PeriodCredit:  l.PeriodCredit,
			ClosingDebit:  l.ClosingDebit,
			ClosingCredit: l.ClosingCredit,
		}
	}
	return TrialBalanceResponse{
		FiscalYear:   tb.FiscalYear,
		FiscalPeriod: tb.FiscalPeriod,
		Lines:        lines,
		Opening:      ColumnTotals{Debit: tb.TotalOpeningDebit, Credit: tb.TotalOpeningCredit},
		Period:       ColumnTotals{Debit: tb.TotalPeriodDebit, Credit: tb.TotalPeriodCredit},
		Closing:      ColumnTotals{Debit: tb.TotalClosingDebit, Credit: tb.TotalClosingCredit},
		IsBalanced:   tb.IsBalanced,
		Totals:       tb.Totals,
		GeneratedAt:  tb.GeneratedAt,
	}
}

// PostedReceiptResponse is returned by a successful post.
type PostedReceiptResponse struct {
	EntryID        string                 `json:"entryID"`
	EntryNumber    string                 `json:"entryNumber"`
	FiscalYear     int                    `json:"fiscalYear"`
	FiscalPeriod   int                    `json:"fiscalPeriod"`
	PostedBy       string                 `json:"postedBy"`
	PostedAt       time.Time              `json:"postedAt"`
	BalanceChanges []domain.BalanceChange `json:"balanceChanges"`
}

// ToPostedReceiptResponse converts a domain.PostedReceipt to its DTO.
func ToPostedReceiptResponse(r *domain.PostedReceipt) PostedReceiptResponse {
	return PostedReceiptResponse{
		EntryID:        r.EntryID,
		EntryNumber:    r.EntryNumber,
		FiscalYear:     r.FiscalYear,
		FiscalPeriod:   r.FiscalPeriod,
		PostedBy:       r.PostedBy,
		PostedAt:       r.PostedAt,
		BalanceChanges: r.BalanceChanges,
	}
}
