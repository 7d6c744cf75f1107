package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ConfigurationPatch is a partial update to a LoanConfiguration. Nil fields
// are left untouched by the repository.
type ConfigurationPatch struct {
	PrincipalAmount    *decimal.Decimal
	NumberOfMonths     *int
	SalaryDay          *int
	FirstRepaymentDate *civil.Date
	AmountRepayable    *decimal.Decimal
	MonthlyRepayment   *decimal.Decimal
	EffectiveRate      *decimal.Decimal
	StepNumber         int
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}
