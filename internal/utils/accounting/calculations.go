package accounting

import (
	"fmt"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BasePrecision is the minor-unit precision of the ledger's base currency.
const BasePrecision = 2

// ToBaseAmount converts an entry-currency amount into the organization's base
// currency. The conversion is always computed from the rate, rounded half-up
// at the ledger's minor-unit precision; there is no fallback to the raw
// amount when the product is zero.
func ToBaseAmount(amount, exchangeRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(exchangeRate).Round(BasePrecision)
}

// SignedNet collapses raw debit/credit totals into a single net signed toward
// the account's normal side.
func SignedNet(totalDebit, totalCredit decimal.Decimal, normalSide domain.Side) decimal.Decimal {
	if normalSide == domain.SideCredit {
		return totalCredit.Sub(totalDebit)
	}
	return totalDebit.Sub(totalCredit)
}

// SplitToPair places a signed net balance into a (debit, credit) pair: a
// positive net sits on the normal side, a negative (abnormal) net on the
// opposite side. At most one side of the pair is nonzero.
func SplitToPair(net decimal.Decimal, normalSide domain.Side) (debit, credit decimal.Decimal) {
	side := normalSide
	magnitude := net
	if net.IsNegative() {
		side = normalSide.Opposite()
		magnitude = net.Neg()
	}
	if side == domain.SideDebit {
		return magnitude, decimal.Zero
	}
	return decimal.Zero, magnitude
}

// ValidateEntryLines checks the per-line invariants and the double-entry
// balance of a prospective entry's lines.
func ValidateEntryLines(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("entry must have at least two lines")
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return err
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	diff := totalDebit.Sub(totalCredit).Abs()
	if diff.GreaterThan(domain.BalanceTolerance) {
		return fmt.Errorf("debits sum is %s and credits sum is %s", totalDebit.String(), totalCredit.String())
	}
	return nil
}
