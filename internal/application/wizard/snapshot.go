package wizard

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

// Snapshot is a point-in-time view of a wizard session.
type Snapshot struct {
	BorrowerID         string
	ConfigurationID    string
	Step               valueobject.WizardStep
	StepNumber         int
	PrincipalAmount    decimal.Decimal
	NumberOfMonths     int
	SalaryDay          int
	FirstRepaymentDate civil.Date
	Repayment          service.Repayment
	Cap                service.CapResolution
	CapResolved        bool
	Message            string
}

// snapshotLocked builds a Snapshot; mu must be held.
func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		BorrowerID:         m.borrowerID,
		Step:               m.step,
		PrincipalAmount:    m.amount,
		NumberOfMonths:     m.months,
		SalaryDay:          m.salaryDay,
		FirstRepaymentDate: m.firstDate,
		Repayment:          m.repayment,
		Cap:                m.capRes,
		CapResolved:        m.capReady,
		Message:            m.notice,
	}
	if m.record != nil {
		s.ConfigurationID = m.record.ID()
		s.StepNumber = m.record.StepNumber()
	}
	if s.Message == "" {
		s.Message = m.stepHint()
	}
	return s
}

// stepHint is the disclaimer shown for the current step when there is no
// pending notice.
func (m *Machine) stepHint() string {
	switch {
	case m.step.Equal(valueobject.WizardStepAmount):
		return m.capRes.Notice()
	case m.step.Equal(valueobject.WizardStepMonths):
		return fmt.Sprintf("Maximum repayment period: %d Months", m.deps.Calculator.MaxMonths())
	case m.step.Equal(valueobject.WizardStepDate):
		return fmt.Sprintf("Monthly repayment: %s (set salary day below)", money.FormatZAR(m.repayment.MonthlyRepayment))
	case m.step.Equal(valueobject.WizardStepComplete):
		return fmt.Sprintf("First repayment of %s on the %s of %s",
			money.FormatZAR(m.repayment.MonthlyRepayment),
			service.Ordinal(m.firstDate.Day),
			m.firstDate.Month.String())
	default:
		return ""
	}
}
