package service_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
)

func TestCreditDecisionEngine_Classify(t *testing.T) {
	engine := service.NewCreditDecisionEngine()

	tests := []struct {
		score     int
		band      valueobject.RiskBand
		status    string
		label     string
		rateClass string
		allowed   bool
	}{
		{100, valueobject.RiskBandA, "Auto-Approved", "PRE APPROVED", "Prime + 8%", true},
		{80, valueobject.RiskBandA, "Auto-Approved", "PRE APPROVED", "Prime + 8%", true},
		{79, valueobject.RiskBandB, "Approved", "PRE APPROVED", "Prime + 10%", true},
		{70, valueobject.RiskBandB, "Approved", "PRE APPROVED", "Prime + 10%", true},
		{69, valueobject.RiskBandC, "Manual Review", "MANUAL REVIEW", "Prime + 12%", true},
		{50, valueobject.RiskBandC, "Manual Review", "MANUAL REVIEW", "Prime + 12%", true},
		{49, valueobject.RiskBandD, "Declined", "DECLINED", "N/A", false},
		{0, valueobject.RiskBandD, "Declined", "DECLINED", "N/A", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("score %d", tt.score), func(t *testing.T) {
			d, err := engine.Classify(tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.score, d.Score)
			assert.Equal(t, tt.band, d.Band)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.label, d.Label)
			assert.Equal(t, tt.rateClass, d.RateClass)
			assert.Equal(t, tt.allowed, d.AllowsConfiguration())
		})
	}
}

func TestCreditDecisionEngine_ClassifyOutOfRange(t *testing.T) {
	engine := service.NewCreditDecisionEngine()

	for _, score := range []int{-1, 101, 750} {
		_, err := engine.Classify(score)
		assert.ErrorIs(t, err, service.ErrScoreOutOfRange, "score %d", score)
	}
}

func TestBorrowingCapResolver_Resolve(t *testing.T) {
	resolver := service.NewBorrowingCapResolver(service.DefaultCapPolicy())
	d := func(v string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(v))
	}

	tests := []struct {
		name      string
		snapshot  *model.IncomeSnapshot
		cap       string
		rationale valueobject.CapRationale
		notice    string
	}{
		{
			name:      "net income of 10000",
			snapshot:  &model.IncomeSnapshot{NetMonthlyIncome: d("10000")},
			cap:       "2000",
			rationale: valueobject.CapRationaleIncomeDerived,
			notice:    "Maximum loan cap: R2,000.00 (20% of net monthly income)",
		},
		{
			name:      "no snapshot",
			snapshot:  nil,
			cap:       "10000",
			rationale: valueobject.CapRationaleDefault,
			notice:    "Maximum loan cap: R10,000.00",
		},
		{
			name:      "floor applies",
			snapshot:  &model.IncomeSnapshot{NetMonthlyIncome: d("100")},
			cap:       "1000",
			rationale: valueobject.CapRationaleIncomeDerived,
			notice:    "Maximum loan cap: R1,000.00 (20% of net monthly income)",
		},
		{
			name:      "cap is floored to an integer",
			snapshot:  &model.IncomeSnapshot{NetMonthlyIncome: d("23456.78")},
			cap:       "4691",
			rationale: valueobject.CapRationaleIncomeDerived,
			notice:    "Maximum loan cap: R4,691.00 (20% of net monthly income)",
		},
		{
			name:      "averages used when net is missing",
			snapshot:  &model.IncomeSnapshot{AvgMonthlyIncome: d("30000"), AvgMonthlyExpenses: d("12000")},
			cap:       "3600",
			rationale: valueobject.CapRationaleIncomeDerived,
			notice:    "Maximum loan cap: R3,600.00 (20% of net monthly income)",
		},
		{
			name:      "negative average net falls back to default",
			snapshot:  &model.IncomeSnapshot{AvgMonthlyIncome: d("5000"), AvgMonthlyExpenses: d("8000")},
			cap:       "10000",
			rationale: valueobject.CapRationaleDefault,
			notice:    "Maximum loan cap: R10,000.00",
		},
		{
			name:      "empty snapshot falls back to default",
			snapshot:  &model.IncomeSnapshot{},
			cap:       "10000",
			rationale: valueobject.CapRationaleDefault,
			notice:    "Maximum loan cap: R10,000.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.Resolve(tt.snapshot)
			assert.True(t, res.Cap.Equal(decimal.RequireFromString(tt.cap)), "cap: got %s want %s", res.Cap, tt.cap)
			assert.Equal(t, tt.rationale, res.Rationale)
			assert.Equal(t, tt.notice, res.Notice())
		})
	}
}
