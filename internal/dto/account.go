package dto

import (
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to add an account to the chart of accounts.
type CreateAccountRequest struct {
	AccountNumber  string             `json:"accountNumber" binding:"required,max=20"`
	Name           string             `json:"name" binding:"required,max=200"`
	AccountType    domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Description    string             `json:"description"`
	OpeningBalance decimal.Decimal    `json:"openingBalance" binding:"money2"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountNumber  string               `json:"accountNumber"`
	Name           string               `json:"name"`
	AccountType    domain.AccountType   `json:"accountType"`
	NormalBalance  domain.NormalBalance `json:"normalBalance"`
	Description    string               `json:"description"`
	OpeningBalance decimal.Decimal      `json:"openingBalance"`
	CurrentBalance decimal.Decimal      `json:"currentBalance"`
	IsActive       bool                 `json:"isActive"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy"`
	LastUpdatedAt  time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy  string               `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber:  acc.AccountNumber,
		Name:           acc.Name,
		AccountType:    acc.AccountType,
		NormalBalance:  acc.NormalBalance,
		Description:    acc.Description,
		OpeningBalance: acc.OpeningBalance,
		CurrentBalance: acc.CurrentBalance,
		IsActive:       acc.IsActive,
		CreatedAt:      acc.CreatedAt,
		CreatedBy:      acc.CreatedBy,
		LastUpdatedAt:  acc.LastUpdatedAt,
		LastUpdatedBy:  acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
// NextToken, when present, overrides Offset.
type ListAccountsParams struct {
	Limit     int    `form:"limit,default=50" binding:"min=1,max=500"`
	Offset    int    `form:"offset,default=0" binding:"min=0"`
	NextToken string `form:"nextToken"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts  []AccountResponse `json:"accounts"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
	NextToken string            `json:"nextToken,omitempty"`
}
