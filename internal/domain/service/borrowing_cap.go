package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

// CapPolicy holds the constants used to derive a borrowing cap.
type CapPolicy struct {
	DefaultCap  decimal.Decimal
	FloorCap    decimal.Decimal
	IncomeShare decimal.Decimal
}

// DefaultCapPolicy returns a R10,000 default, a R1,000 floor and a 20% share
// of net monthly income.
func DefaultCapPolicy() CapPolicy {
	return CapPolicy{
		DefaultCap:  decimal.NewFromInt(10_000),
		FloorCap:    decimal.NewFromInt(1_000),
		IncomeShare: decimal.RequireFromString("0.2"),
	}
}

// CapResolution is a resolved borrowing cap and how it was derived.
type CapResolution struct {
	Cap         decimal.Decimal
	Rationale   valueobject.CapRationale
	IncomeShare decimal.Decimal
}

// Notice is the user-facing description of the cap.
func (r CapResolution) Notice() string {
	if r.Rationale.IsIncomeDerived() {
		return fmt.Sprintf("Maximum loan cap: %s (%s%% of net monthly income)",
			money.FormatZAR(r.Cap), r.IncomeShare.Shift(2).String())
	}
	return fmt.Sprintf("Maximum loan cap: %s", money.FormatZAR(r.Cap))
}

// BorrowingCapResolver derives a borrower's maximum principal from income.
type BorrowingCapResolver struct {
	policy CapPolicy
}

// NewBorrowingCapResolver returns a resolver for policy.
func NewBorrowingCapResolver(policy CapPolicy) *BorrowingCapResolver {
	return &BorrowingCapResolver{policy: policy}
}

// Default returns the cap used when no income signal is available.
func (r *BorrowingCapResolver) Default() CapResolution {
	return CapResolution{
		Cap:         r.policy.DefaultCap,
		Rationale:   valueobject.CapRationaleDefault,
		IncomeShare: r.policy.IncomeShare,
	}
}

// Resolve derives the cap from snapshot. With a usable net income the cap is
// max(floor, floor(net * share)); otherwise the default cap applies.
// A nil snapshot resolves to the default.
func (r *BorrowingCapResolver) Resolve(snapshot *model.IncomeSnapshot) CapResolution {
	if snapshot == nil {
		return r.Default()
	}
	net, ok := snapshot.NetIncome()
	if !ok {
		return r.Default()
	}

	limit := decimal.Max(r.policy.FloorCap, net.Mul(r.policy.IncomeShare).Floor())
	return CapResolution{
		Cap:         limit,
		Rationale:   valueobject.CapRationaleIncomeDerived,
		IncomeShare: r.policy.IncomeShare,
	}
}
