package wizard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

var (
	// ErrAlreadyComplete is returned for submissions after the wizard finished.
	ErrAlreadyComplete = errors.New("loan configuration already complete")
	// ErrInvalidBackTarget is returned when GoBack names a step that cannot
	// be revisited from the current one.
	ErrInvalidBackTarget = errors.New("invalid back target")
)

// ValidationError reports malformed or out-of-range step input. The wizard
// stays on the current step.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CapExceededError reports a principal above the borrower's cap. The working
// amount has been clamped to Cap and must be resubmitted.
type CapExceededError struct {
	Cap decimal.Decimal
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("amount exceeds borrowing cap of %s", money.FormatZAR(e.Cap))
}

// PersistenceError reports that the final configuration could not be
// written. The wizard stays on DATE and the submission can be retried.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save loan configuration: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
