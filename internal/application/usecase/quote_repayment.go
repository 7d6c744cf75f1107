package usecase

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

// QuoteRepaymentUseCase prices loans and schedules first repayments without
// a wizard session.
type QuoteRepaymentUseCase struct {
	calculator *service.FeeCalculator
	scheduler  *service.SalaryScheduler
	clock      func() time.Time
}

// NewQuoteRepaymentUseCase wires dependencies. A nil clock uses time.Now.
func NewQuoteRepaymentUseCase(calculator *service.FeeCalculator, scheduler *service.SalaryScheduler, clock func() time.Time) *QuoteRepaymentUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &QuoteRepaymentUseCase{calculator: calculator, scheduler: scheduler, clock: clock}
}

// Execute prices req. When a salary day is given the first repayment date is
// included.
func (uc *QuoteRepaymentUseCase) Execute(_ context.Context, req dto.QuoteRepaymentRequest) (dto.QuoteResponse, error) {
	if err := money.CheckPrecision(req.Principal); err != nil {
		return dto.QuoteResponse{}, &wizard.ValidationError{Field: "principal", Message: err.Error()}
	}
	if !req.Principal.IsPositive() {
		return dto.QuoteResponse{}, &wizard.ValidationError{Field: "principal", Message: "must be greater than zero"}
	}
	if req.Months < 1 || req.Months > uc.calculator.MaxMonths() {
		return dto.QuoteResponse{}, &wizard.ValidationError{
			Field:   "months",
			Message: fmt.Sprintf("must be between 1 and %d", uc.calculator.MaxMonths()),
		}
	}
	if req.SalaryDay != 0 && (req.SalaryDay < 1 || req.SalaryDay > 31) {
		return dto.QuoteResponse{}, &wizard.ValidationError{Field: "salary_day", Message: "must be between 1 and 31"}
	}

	resp := dto.ToQuoteResponse(req.Principal, req.Months, uc.calculator.Compute(req.Principal, req.Months))
	if req.SalaryDay != 0 {
		resp.FirstRepaymentDate = uc.scheduler.NextFrom(req.SalaryDay, uc.clock()).String()
	}
	return resp, nil
}

// NextSalaryDate returns the first repayment date for a salary day.
func (uc *QuoteRepaymentUseCase) NextSalaryDate(_ context.Context, req dto.NextSalaryDateRequest) (dto.NextSalaryDateResponse, error) {
	if req.SalaryDay < 1 || req.SalaryDay > 31 {
		return dto.NextSalaryDateResponse{}, &wizard.ValidationError{Field: "salary_day", Message: "must be between 1 and 31"}
	}

	ref := uc.scheduler.Today(uc.clock())
	if req.ReferenceDate != "" {
		parsed, err := civil.ParseDate(req.ReferenceDate)
		if err != nil {
			return dto.NextSalaryDateResponse{}, &wizard.ValidationError{Field: "reference_date", Message: "must be YYYY-MM-DD"}
		}
		ref = parsed
	}

	next := uc.scheduler.Next(req.SalaryDay, ref)
	return dto.NextSalaryDateResponse{
		Date: next.String(),
		Hint: fmt.Sprintf("First repayment on the %s of %s %d", service.Ordinal(next.Day), next.Month, next.Year),
	}, nil
}
