package dto_test

import (
	"testing"

	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney2Validator(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding") // the tag gin validates against
	require.NoError(t, dto.RegisterValidators(v))

	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"whole", "100", false},
		{"two places", "100.25", false},
		{"zero", "0", false},
		{"three places", "100.255", true},
		{"negative", "-1.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := dto.EntryLineRequest{
				AccountNumber: "1000",
				DebitAmount:   decimal.RequireFromString(tt.amount),
				CreditAmount:  decimal.Zero,
			}
			err := v.Struct(line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntryRequest_ToCandidate(t *testing.T) {
	req := dto.EntryRequest{
		FiscalYear:   2025,
		FiscalPeriod: 3,
		Lines: []dto.EntryLineRequest{
			{AccountNumber: "1000", DebitAmount: decimal.NewFromInt(5), CreditAmount: decimal.Zero},
			{AccountNumber: "4000", DebitAmount: decimal.Zero, CreditAmount: decimal.NewFromInt(5)},
		},
	}

	entry := req.ToCandidate()

	assert.Equal(t, "REGULAR", string(entry.EntryType))
	assert.Equal(t, "DRAFT", string(entry.Status))
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 1, entry.Lines[0].LineNumber)
	assert.Equal(t, 2, entry.Lines[1].LineNumber)
}
