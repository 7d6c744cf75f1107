package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	aggregateLoanConfiguration = "LoanConfiguration"
	aggregateBorrower          = "Borrower"
)

// Event types published by the credit engine.
const (
	TypeLoanConfigurationStepRecorded = "credit.loan_configuration.step_recorded"
	TypeLoanConfigurationCompleted    = "credit.loan_configuration.completed"
	TypeBorrowingCapResolved          = "credit.borrowing_cap.resolved"
	TypeCreditDecisionMade            = "credit.assessment.classified"
)

// ---------------------------------------------------------------------------
// Loan Configuration Events
// ---------------------------------------------------------------------------

// LoanConfigurationStepRecorded is raised each time a wizard step is persisted.
type LoanConfigurationStepRecorded struct {
	events.BaseEvent
	BorrowerID string `json:"borrower_id"`
	StepNumber int    `json:"step_number"`
}

func NewLoanConfigurationStepRecorded(configurationID, borrowerID string, stepNumber int, now time.Time) LoanConfigurationStepRecorded {
	return LoanConfigurationStepRecorded{
		BaseEvent:  events.NewBaseEvent(TypeLoanConfigurationStepRecorded, configurationID, aggregateLoanConfiguration, now),
		BorrowerID: borrowerID,
		StepNumber: stepNumber,
	}
}

// LoanConfigurationCompleted is raised once the borrower confirms the
// repayment date and the full configuration has been committed.
type LoanConfigurationCompleted struct {
	events.BaseEvent
	BorrowerID         string          `json:"borrower_id"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	AmountRepayable    decimal.Decimal `json:"amount_repayable"`
	MonthlyRepayment   decimal.Decimal `json:"monthly_repayment"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	FirstRepaymentDate string          `json:"first_repayment_date"`
	NumberOfMonths     int             `json:"number_of_months"`
	SalaryDay          int             `json:"salary_day"`
}

func NewLoanConfigurationCompleted(
	configurationID, borrowerID string,
	principal, repayable, monthly, rate decimal.Decimal,
	months, salaryDay int,
	firstRepaymentDate string,
	now time.Time,
) LoanConfigurationCompleted {
	return LoanConfigurationCompleted{
		BaseEvent:          events.NewBaseEvent(TypeLoanConfigurationCompleted, configurationID, aggregateLoanConfiguration, now),
		BorrowerID:         borrowerID,
		PrincipalAmount:    principal,
		AmountRepayable:    repayable,
		MonthlyRepayment:   monthly,
		EffectiveRate:      rate,
		FirstRepaymentDate: firstRepaymentDate,
		NumberOfMonths:     months,
		SalaryDay:          salaryDay,
	}
}

// ---------------------------------------------------------------------------
// Borrower Events
// ---------------------------------------------------------------------------

// BorrowingCapResolved is raised when a borrower's cap has been determined.
type BorrowingCapResolved struct {
	events.BaseEvent
	Cap       decimal.Decimal `json:"cap"`
	Rationale string          `json:"rationale"`
}

func NewBorrowingCapResolved(borrowerID string, limit decimal.Decimal, rationale string, now time.Time) BorrowingCapResolved {
	return BorrowingCapResolved{
		BaseEvent: events.NewBaseEvent(TypeBorrowingCapResolved, borrowerID, aggregateBorrower, now),
		Cap:       limit,
		Rationale: rationale,
	}
}

// CreditDecisionMade is raised when a risk score has been classified.
type CreditDecisionMade struct {
	events.BaseEvent
	Score     int    `json:"score"`
	Band      string `json:"band"`
	Status    string `json:"status"`
	RateClass string `json:"rate_class"`
}

func NewCreditDecisionMade(borrowerID string, score int, band, status, rateClass string, now time.Time) CreditDecisionMade {
	return CreditDecisionMade{
		BaseEvent: events.NewBaseEvent(TypeCreditDecisionMade, borrowerID, aggregateBorrower, now),
		Score:     score,
		Band:      band,
		Status:    status,
		RateClass: rateClass,
	}
}
