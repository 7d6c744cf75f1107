package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// WizardStep – immutable value object
// ---------------------------------------------------------------------------

// WizardStep is a state of the loan configuration wizard.
type WizardStep struct {
	value string
}

const (
	wizardStepAmount   = "AMOUNT"
	wizardStepMonths   = "MONTHS"
	wizardStepDate     = "DATE"
	wizardStepComplete = "COMPLETE"
)

var (
	WizardStepAmount   = WizardStep{value: wizardStepAmount}
	WizardStepMonths   = WizardStep{value: wizardStepMonths}
	WizardStepDate     = WizardStep{value: wizardStepDate}
	WizardStepComplete = WizardStep{value: wizardStepComplete}
)

var validWizardSteps = map[string]WizardStep{
	wizardStepAmount:   WizardStepAmount,
	wizardStepMonths:   WizardStepMonths,
	wizardStepDate:     WizardStepDate,
	wizardStepComplete: WizardStepComplete,
}

// Persisted step numbers. A record's step number records the last step
// whose input was accepted.
const (
	StepNumberNew      = 0
	StepNumberAmount   = 1
	StepNumberMonths   = 2
	StepNumberComplete = 3
)

// ErrInvalidStepTransition is returned when a wizard transition is not allowed.
var ErrInvalidStepTransition = errors.New("invalid wizard step transition")

// NewWizardStep creates a WizardStep from a raw string.
func NewWizardStep(s string) (WizardStep, error) {
	v, ok := validWizardSteps[s]
	if !ok {
		return WizardStep{}, fmt.Errorf("invalid wizard step: %q", s)
	}
	return v, nil
}

// ResumeStepFor returns the step a session resumes at given the persisted
// step number. A completed record reopens at DATE so the borrower can
// re-confirm the repayment date.
func ResumeStepFor(stepNumber int) WizardStep {
	switch {
	case stepNumber >= StepNumberMonths:
		return WizardStepDate
	case stepNumber == StepNumberAmount:
		return WizardStepMonths
	default:
		return WizardStepAmount
	}
}

// String returns the string representation of the step.
func (s WizardStep) String() string { return s.value }

// IsZero returns true if the step has not been initialised.
func (s WizardStep) IsZero() bool { return s.value == "" }

// Equal returns true when both steps carry the same value.
func (s WizardStep) Equal(other WizardStep) bool {
	return s.value == other.value
}

// IsTerminal reports whether the step ends the wizard.
func (s WizardStep) IsTerminal() bool {
	return s.value == wizardStepComplete
}

// Next returns the step that follows s.
func (s WizardStep) Next() (WizardStep, error) {
	switch s.value {
	case wizardStepAmount:
		return WizardStepMonths, nil
	case wizardStepMonths:
		return WizardStepDate, nil
	case wizardStepDate:
		return WizardStepComplete, nil
	default:
		return WizardStep{}, fmt.Errorf("%w: no step after %s", ErrInvalidStepTransition, s.value)
	}
}

// CanGoBackTo reports whether a session at s may return to target.
// Only AMOUNT and MONTHS are valid back targets, and only from a later,
// non-terminal step.
func (s WizardStep) CanGoBackTo(target WizardStep) bool {
	if s.IsTerminal() {
		return false
	}
	switch target.value {
	case wizardStepAmount:
		return s.value == wizardStepMonths || s.value == wizardStepDate
	case wizardStepMonths:
		return s.value == wizardStepDate
	default:
		return false
	}
}
