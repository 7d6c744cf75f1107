package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeSnapshot is the most recent view of a borrower's bank-derived
// income. Any field may be absent.
type IncomeSnapshot struct {
	NetMonthlyIncome   decimal.NullDecimal `json:"net_monthly_income"`
	AvgMonthlyIncome   decimal.NullDecimal `json:"avg_monthly_income"`
	AvgMonthlyExpenses decimal.NullDecimal `json:"avg_monthly_expenses"`
	CapturedAt         time.Time           `json:"captured_at"`
}

// NetIncome returns the usable net monthly income. The explicit net figure
// wins when positive; otherwise average income less average expenses is
// used when positive, and only when both averages are present. ok is false
// when neither yields a positive value.
func (s IncomeSnapshot) NetIncome() (net decimal.Decimal, ok bool) {
	if s.NetMonthlyIncome.Valid && s.NetMonthlyIncome.Decimal.IsPositive() {
		return s.NetMonthlyIncome.Decimal, true
	}
	if s.AvgMonthlyIncome.Valid && s.AvgMonthlyExpenses.Valid {
		derived := s.AvgMonthlyIncome.Decimal.Sub(s.AvgMonthlyExpenses.Decimal)
		if derived.IsPositive() {
			return derived, true
		}
	}
	return decimal.Zero, false
}
