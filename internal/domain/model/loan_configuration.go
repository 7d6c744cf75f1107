package model

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
)

var (
	// ErrConfigurationNotFound is returned when no record exists for a key.
	ErrConfigurationNotFound = errors.New("loan configuration not found")
	// ErrVersionConflict is returned when a write carries a stale version.
	ErrVersionConflict = errors.New("loan configuration version conflict")
)

// ---------------------------------------------------------------------------
// LoanConfiguration aggregate root
// ---------------------------------------------------------------------------

// LoanConfiguration is a borrower's in-progress or completed loan setup.
// It is immutable; Apply returns a new copy. Zero values mark fields the
// wizard has not yet captured.
type LoanConfiguration struct {
	id                 string
	borrowerID         string
	principalAmount    decimal.Decimal
	numberOfMonths     int
	salaryDay          int
	firstRepaymentDate civil.Date
	amountRepayable    decimal.Decimal
	monthlyRepayment   decimal.Decimal
	effectiveRate      decimal.Decimal
	stepNumber         int
	version            int
	createdAt          time.Time
	updatedAt          time.Time
	completedAt        *time.Time
}

// NewLoanConfiguration creates an empty configuration for a borrower.
func NewLoanConfiguration(borrowerID string, now time.Time) (LoanConfiguration, error) {
	if borrowerID == "" {
		return LoanConfiguration{}, errors.New("borrower ID is required")
	}
	return LoanConfiguration{
		id:         uuid.New().String(),
		borrowerID: borrowerID,
		stepNumber: valueobject.StepNumberNew,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructLoanConfiguration rebuilds an aggregate from persisted state.
func ReconstructLoanConfiguration(
	id, borrowerID string,
	principalAmount decimal.Decimal,
	numberOfMonths, salaryDay int,
	firstRepaymentDate civil.Date,
	amountRepayable, monthlyRepayment, effectiveRate decimal.Decimal,
	stepNumber, version int,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
) LoanConfiguration {
	return LoanConfiguration{
		id:                 id,
		borrowerID:         borrowerID,
		principalAmount:    principalAmount,
		numberOfMonths:     numberOfMonths,
		salaryDay:          salaryDay,
		firstRepaymentDate: firstRepaymentDate,
		amountRepayable:    amountRepayable,
		monthlyRepayment:   monthlyRepayment,
		effectiveRate:      effectiveRate,
		stepNumber:         stepNumber,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
		completedAt:        completedAt,
	}
}

// Apply returns a copy with the patch's fields set. The step number never
// decreases, and the version is bumped by one.
func (c LoanConfiguration) Apply(p ConfigurationPatch, now time.Time) LoanConfiguration {
	next := c
	if p.PrincipalAmount != nil {
		next.principalAmount = *p.PrincipalAmount
	}
	if p.NumberOfMonths != nil {
		next.numberOfMonths = *p.NumberOfMonths
	}
	if p.SalaryDay != nil {
		next.salaryDay = *p.SalaryDay
	}
	if p.FirstRepaymentDate != nil {
		next.firstRepaymentDate = *p.FirstRepaymentDate
	}
	if p.AmountRepayable != nil {
		next.amountRepayable = *p.AmountRepayable
	}
	if p.MonthlyRepayment != nil {
		next.monthlyRepayment = *p.MonthlyRepayment
	}
	if p.EffectiveRate != nil {
		next.effectiveRate = *p.EffectiveRate
	}
	next.stepNumber = max(c.stepNumber, p.StepNumber)
	if next.stepNumber >= valueobject.StepNumberComplete && c.completedAt == nil {
		completed := now
		next.completedAt = &completed
	}
	next.version = c.version + 1
	next.updatedAt = now
	return next
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// HasAmount reports whether a principal has been captured.
func (c LoanConfiguration) HasAmount() bool { return c.principalAmount.IsPositive() }

// HasMonths reports whether a term has been captured.
func (c LoanConfiguration) HasMonths() bool { return c.numberOfMonths > 0 }

// HasSalaryDay reports whether a salary day has been captured.
func (c LoanConfiguration) HasSalaryDay() bool { return c.salaryDay > 0 }

// IsComplete reports whether the full configuration has been committed.
func (c LoanConfiguration) IsComplete() bool {
	return c.stepNumber >= valueobject.StepNumberComplete
}

// ResumeStep returns the wizard step a new session should open at.
func (c LoanConfiguration) ResumeStep() valueobject.WizardStep {
	return valueobject.ResumeStepFor(c.stepNumber)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (c LoanConfiguration) ID() string { return c.id }
func (c LoanConfiguration) BorrowerID() string { return c.borrowerID }
func (c LoanConfiguration) PrincipalAmount() decimal.Decimal { return c.principalAmount }
func (c LoanConfiguration) NumberOfMonths() int { return c.numberOfMonths }
func (c LoanConfiguration) SalaryDay() int { return c.salaryDay }
func (c LoanConfiguration) FirstRepaymentDate() civil.Date { return c.firstRepaymentDate }
func (c LoanConfiguration) AmountRepayable() decimal.Decimal { return c.amountRepayable }
func (c LoanConfiguration) MonthlyRepayment() decimal.Decimal { return c.monthlyRepayment }
func (c LoanConfiguration) EffectiveRate() decimal.Decimal { return c.effectiveRate }
func (c LoanConfiguration) StepNumber() int { return c.stepNumber }
func (c LoanConfiguration) Version() int { return c.version }
func (c LoanConfiguration) CreatedAt() time.Time { return c.createdAt }
func (c LoanConfiguration) UpdatedAt() time.Time { return c.updatedAt }

// CompletedAt returns when the configuration was completed, or nil.
func (c LoanConfiguration) CompletedAt() *time.Time {
	if c.completedAt == nil {
		return nil
	}
	t := *c.completedAt
	return &t
}
