package dto

import (
	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// StartConfigurationRequest opens (or resumes) a borrower's wizard session.
type StartConfigurationRequest struct {
	BorrowerID string `json:"borrower_id"`
}

// SubmitStepRequest carries the raw input for the session's current step.
type SubmitStepRequest struct {
	BorrowerID    string `json:"borrower_id"`
	Amount        string `json:"amount,omitempty"`
	Months        string `json:"months,omitempty"`
	SalaryDay     string `json:"salary_day,omitempty"`
	RepaymentDate string `json:"repayment_date,omitempty"`
}

// GoBackRequest asks the session to revisit an earlier step.
type GoBackRequest struct {
	BorrowerID string `json:"borrower_id"`
	Target     string `json:"target"`
}

// GetConfigurationRequest identifies a borrower's session.
type GetConfigurationRequest struct {
	BorrowerID string `json:"borrower_id"`
}

// QuoteRepaymentRequest prices a loan without a session.
type QuoteRepaymentRequest struct {
	Principal decimal.Decimal `json:"principal"`
	Months    int             `json:"months"`
	SalaryDay int             `json:"salary_day,omitempty"`
}

// NextSalaryDateRequest asks for the first repayment date for a salary day.
// An empty reference date means today.
type NextSalaryDateRequest struct {
	SalaryDay     int    `json:"salary_day"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

// AssessBorrowerRequest asks for a borrower's credit decision.
type AssessBorrowerRequest struct {
	BorrowerID string `json:"borrower_id"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ConfigurationResponse is the external representation of a wizard session.
type ConfigurationResponse struct {
	BorrowerID         string          `json:"borrower_id"`
	ConfigurationID    string          `json:"configuration_id,omitempty"`
	Step               string          `json:"step"`
	StepNumber         int             `json:"step_number"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	NumberOfMonths     int             `json:"number_of_months,omitempty"`
	SalaryDay          int             `json:"salary_day,omitempty"`
	FirstRepaymentDate string          `json:"first_repayment_date,omitempty"`
	TotalFees          decimal.Decimal `json:"total_fees"`
	AmountRepayable    decimal.Decimal `json:"amount_repayable"`
	MonthlyRepayment   decimal.Decimal `json:"monthly_repayment"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	Cap                decimal.Decimal `json:"cap"`
	CapRationale       string          `json:"cap_rationale"`
	CapResolved        bool            `json:"cap_resolved"`
	Message            string          `json:"message"`
	Display            DisplayAmounts  `json:"display"`
}

// DisplayAmounts are pre-formatted currency strings.
type DisplayAmounts struct {
	PrincipalAmount  string `json:"principal_amount"`
	AmountRepayable  string `json:"amount_repayable"`
	MonthlyRepayment string `json:"monthly_repayment"`
	Cap              string `json:"cap"`
}

// QuoteResponse is a priced loan.
type QuoteResponse struct {
	Principal          decimal.Decimal `json:"principal"`
	Months             int             `json:"months"`
	TotalFees          decimal.Decimal `json:"total_fees"`
	TotalRepayable     decimal.Decimal `json:"total_repayable"`
	MonthlyRepayment   decimal.Decimal `json:"monthly_repayment"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	FirstRepaymentDate string          `json:"first_repayment_date,omitempty"`
	Display            DisplayAmounts  `json:"display"`
}

// NextSalaryDateResponse carries a computed first repayment date.
type NextSalaryDateResponse struct {
	Date string `json:"date"`
	Hint string `json:"hint"`
}

// RiskCategoryResponse is a display-only category of the assessment.
type RiskCategoryResponse struct {
	Label   string            `json:"label"`
	Value   int               `json:"value"`
	Weight  int               `json:"weight"`
	Metrics map[string]string `json:"metrics"`
	Order   []string          `json:"metric_order"`
}

// AssessmentResponse is a classified credit decision.
type AssessmentResponse struct {
	BorrowerID   string                 `json:"borrower_id"`
	Score        int                    `json:"score"`
	Band         string                 `json:"band"`
	Status       string                 `json:"status"`
	Label        string                 `json:"label"`
	RateClass    string                 `json:"rate_class"`
	CanConfigure bool                   `json:"can_configure"`
	Categories   []RiskCategoryResponse `json:"categories"`
}

// ---------------------------------------------------------------------------
// Mappers
// ---------------------------------------------------------------------------

// ToConfigurationResponse converts a wizard snapshot.
func ToConfigurationResponse(s wizard.Snapshot) ConfigurationResponse {
	resp := ConfigurationResponse{
		BorrowerID:       s.BorrowerID,
		ConfigurationID:  s.ConfigurationID,
		Step:             s.Step.String(),
		StepNumber:       s.StepNumber,
		PrincipalAmount:  s.PrincipalAmount,
		NumberOfMonths:   s.NumberOfMonths,
		SalaryDay:        s.SalaryDay,
		TotalFees:        s.Repayment.TotalFees,
		AmountRepayable:  s.Repayment.TotalRepayable,
		MonthlyRepayment: s.Repayment.MonthlyRepayment,
		EffectiveRate:    s.Repayment.EffectiveRate,
		Cap:              s.Cap.Cap,
		CapRationale:     s.Cap.Rationale.String(),
		CapResolved:      s.CapResolved,
		Message:          s.Message,
		Display:          display(s.PrincipalAmount, s.Repayment, s.Cap.Cap),
	}
	if s.FirstRepaymentDate.IsValid() {
		resp.FirstRepaymentDate = s.FirstRepaymentDate.String()
	}
	return resp
}

// ToAssessmentResponse combines an assessment with its decision.
func ToAssessmentResponse(a model.RiskAssessment, d service.Decision) AssessmentResponse {
	cats := make([]RiskCategoryResponse, 0, len(a.Categories))
	for _, c := range a.Categories {
		metrics := make(map[string]string, len(c.Metrics))
		order := make([]string, 0, len(c.Metrics))
		for _, m := range c.Metrics {
			metrics[m.Name] = m.Value
			order = append(order, m.Name)
		}
		cats = append(cats, RiskCategoryResponse{
			Label:   c.Label,
			Value:   c.Value,
			Weight:  c.Weight,
			Metrics: metrics,
			Order:   order,
		})
	}
	return AssessmentResponse{
		BorrowerID:   a.BorrowerID,
		Score:        d.Score,
		Band:         d.Band.String(),
		Status:       d.Status,
		Label:        d.Label,
		RateClass:    d.RateClass,
		CanConfigure: d.AllowsConfiguration(),
		Categories:   cats,
	}
}

func display(principal decimal.Decimal, r service.Repayment, limit decimal.Decimal) DisplayAmounts {
	return DisplayAmounts{
		PrincipalAmount:  money.FormatZAR(principal),
		AmountRepayable:  money.FormatZAR(r.TotalRepayable),
		MonthlyRepayment: money.FormatZAR(r.MonthlyRepayment),
		Cap:              money.FormatZAR(limit),
	}
}

// ToQuoteResponse converts a computed repayment.
func ToQuoteResponse(principal decimal.Decimal, months int, r service.Repayment) QuoteResponse {
	d := display(principal, r, decimal.Zero)
	d.Cap = ""
	return QuoteResponse{
		Principal:        principal,
		Months:           months,
		TotalFees:        r.TotalFees,
		TotalRepayable:   r.TotalRepayable,
		MonthlyRepayment: r.MonthlyRepayment,
		EffectiveRate:    r.EffectiveRate,
		Display:          d,
	}
}
