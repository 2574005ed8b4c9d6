package accounting

import (
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedDelta returns the change a debit/credit pair makes to an account balance
// kept in the account's normal direction:
//
//	DEBIT-normal:  debit - credit
//	CREDIT-normal: credit - debit
func SignedDelta(normal domain.NormalBalance, m domain.Movement) decimal.Decimal {
	if normal == domain.CreditNormal {
		return m.Credit.Sub(m.Debit)
	}
	return m.Debit.Sub(m.Credit)
}

// LineMovement returns the movement a single journal line contributes.
func LineMovement(l domain.JournalEntryLine) domain.Movement {
	return domain.Movement{Debit: l.DebitAmount, Credit: l.CreditAmount}
}

// AggregateByAccount sums line movements per account number, preserving first-seen order.
func AggregateByAccount(lines []domain.JournalEntryLine) ([]string, map[string]domain.Movement) {
	order := make([]string, 0, len(lines))
	out := make(map[string]domain.Movement, len(lines))
	for _, l := range lines {
		m, ok := out[l.AccountNumber]
		if !ok {
			order = append(order, l.AccountNumber)
			m = domain.Movement{Debit: decimal.Zero, Credit: decimal.Zero}
		}
		out[l.AccountNumber] = m.Add(LineMovement(l))
	}
	return order, out
}

// SplitColumns places a normal-direction balance into the debit or credit column.
// A negative balance on a debit-normal account shows as a credit, and vice versa.
func SplitColumns(normal domain.NormalBalance, balance decimal.Decimal) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	if balance.IsZero() {
		return debit, credit
	}
	natural := balance.Abs()
	onNormalSide := balance.IsPositive()
	if (normal == domain.DebitNormal) == onNormalSide {
		return natural, credit
	}
	return debit, natural
}

// SwapLines returns the lines with debit and credit amounts exchanged, renumbered from 1.
func SwapLines(lines []domain.JournalEntryLine) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		out[i] = l
		out[i].EntryID = ""
		out[i].LineNumber = i + 1
		out[i].DebitAmount, out[i].CreditAmount = l.CreditAmount, l.DebitAmount
	}
	return out
}

// SameMovements reports whether both line sets post the same amounts to the same accounts
// in the same order. Descriptions and dimension codes are not compared.
func SameMovements(a, b []domain.JournalEntryLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].AccountNumber != b[i].AccountNumber ||
			!a[i].DebitAmount.Equal(b[i].DebitAmount) ||
			!a[i].CreditAmount.Equal(b[i].CreditAmount) {
			return false
		}
	}
	return true
}

// HasScaleAtMost reports whether d has no more than places digits after the decimal point.
func HasScaleAtMost(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}
