package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChange is the net effect of one posted entry on one account.
type BalanceChange struct {
	AccountNumber string          `json:"accountNumber"`
	Delta         decimal.Decimal `json:"delta"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

// PostedReceipt is returned by a successful post.
type PostedReceipt struct {
	EntryID        string          `json:"entryID"`
	EntryNumber    string          `json:"entryNumber"`
	FiscalYear     int             `json:"fiscalYear"`
	FiscalPeriod   int             `json:"fiscalPeriod"`
	PostedBy       string          `json:"postedBy"`
	PostedAt       time.Time       `json:"postedAt"`
	BalanceChanges []BalanceChange `json:"balanceChanges"`
}
