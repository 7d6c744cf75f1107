package service

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// FeeCalculator – total cost of credit and per-period repayment
// ---------------------------------------------------------------------------

// FeeSchedule holds the fee constants applied to every loan.
type FeeSchedule struct {
	BaseFee         decimal.Decimal
	Over1kThreshold decimal.Decimal
	Over1kRate      decimal.Decimal
	MonthlyRate     decimal.Decimal
	MaxMonths       int
}

// DefaultFeeSchedule returns the standard schedule: a R169 base fee, 10% of
// principal above R1,000 and 5% of principal per month for up to 24 months.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		BaseFee:         decimal.NewFromInt(169),
		Over1kThreshold: decimal.NewFromInt(1000),
		Over1kRate:      decimal.RequireFromString("0.10"),
		MonthlyRate:     decimal.RequireFromString("0.05"),
		MaxMonths:       24,
	}
}

// Repayment is the computed cost of a loan.
type Repayment struct {
	TotalFees        decimal.Decimal
	TotalRepayable   decimal.Decimal
	MonthlyRepayment decimal.Decimal
	EffectiveRate    decimal.Decimal
}

// FeeCalculator is a pure domain service over a FeeSchedule.
type FeeCalculator struct {
	schedule FeeSchedule
}

// NewFeeCalculator returns a calculator for the given schedule.
func NewFeeCalculator(schedule FeeSchedule) *FeeCalculator {
	return &FeeCalculator{schedule: schedule}
}

// MaxMonths returns the longest term fees accrue over.
func (c *FeeCalculator) MaxMonths() int {
	return c.schedule.MaxMonths
}

// Compute returns the repayment for principal over months.
//
//	totalFees       = base + max(0, principal - threshold) * over1kRate
//	                       + principal * monthlyRate * min(months, maxMonths)
//	monthly         = (principal + totalFees) / months
//	effectiveRate   = totalFees / principal
//
// Fee accrual stops at MaxMonths but the instalment divisor does not: a
// term longer than MaxMonths spreads the same total over more instalments.
// Callers validate input; a non-positive principal or term yields a zero
// Repayment.
func (c *FeeCalculator) Compute(principal decimal.Decimal, months int) Repayment {
	if !principal.IsPositive() || months <= 0 {
		return Repayment{
			TotalFees:        decimal.Zero,
			TotalRepayable:   decimal.Zero,
			MonthlyRepayment: decimal.Zero,
			EffectiveRate:    decimal.Zero,
		}
	}

	accrualMonths := min(months, c.schedule.MaxMonths)

	over1k := decimal.Max(decimal.Zero, principal.Sub(c.schedule.Over1kThreshold)).Mul(c.schedule.Over1kRate)
	monthlyFee := principal.Mul(c.schedule.MonthlyRate).Mul(decimal.NewFromInt(int64(accrualMonths)))
	totalFees := c.schedule.BaseFee.Add(over1k).Add(monthlyFee)
	totalRepayable := principal.Add(totalFees)

	return Repayment{
		TotalFees:        totalFees,
		TotalRepayable:   totalRepayable,
		MonthlyRepayment: totalRepayable.Div(decimal.NewFromInt(int64(months))),
		EffectiveRate:    totalRepayable.Sub(principal).Div(principal),
	}
}
