package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/events"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/money"
)

// CapSource resolves a borrower's borrowing cap. Execute must not block
// past its own timeout and never fails; Default is used until it returns.
type CapSource interface {
	Execute(ctx context.Context, borrowerID string) service.CapResolution
	Default() service.CapResolution
}

// Dependencies are the collaborators shared by every wizard session.
type Dependencies struct {
	Repository port.LoanConfigurationRepository
	Caps       CapSource
	Calculator *service.FeeCalculator
	Scheduler  *service.SalaryScheduler
	Publisher  port.EventPublisher
	Metrics    port.Metrics
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Input is a single step submission. Only the fields for the current step
// are read.
type Input struct {
	Amount        string
	Months        string
	SalaryDay     string
	RepaymentDate string
}

// Machine drives one borrower through AMOUNT -> MONTHS -> DATE -> COMPLETE.
// Submissions are serialised; observers and the completion callback run
// outside the lock.
type Machine struct {
	deps       Dependencies
	borrowerID string

	mu        sync.Mutex
	step      valueobject.WizardStep
	record    *model.LoanConfiguration
	amount    decimal.Decimal
	months    int
	salaryDay int
	firstDate civil.Date
	repayment service.Repayment
	capRes    service.CapResolution
	capReady  bool
	notice    string
	observers []func(Snapshot)
	collector events.EventCollector

	capDone      chan struct{}
	completeOnce sync.Once
	onComplete   func(Snapshot)
}

// New starts a session for borrowerID. The borrower's existing record, if
// any, pre-fills the inputs and decides the resume step. A failed load is
// logged and the session starts empty; the record is created on the first
// write instead. Cap resolution runs in the background.
func New(ctx context.Context, deps Dependencies, borrowerID string) (*Machine, error) {
	if borrowerID == "" {
		return nil, errors.New("borrower ID is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	m := &Machine{
		deps:       deps,
		borrowerID: borrowerID,
		step:       valueobject.WizardStepAmount,
		capRes:     deps.Caps.Default(),
		capDone:    make(chan struct{}),
	}

	rec, err := deps.Repository.FindOrCreate(ctx, borrowerID)
	if err != nil {
		deps.Logger.WarnContext(ctx, "load loan configuration failed, starting empty",
			"borrower_id", borrowerID,
			"error", err,
		)
	} else {
		m.prefill(rec)
	}

	go m.resolveCap(context.WithoutCancel(ctx))

	return m, nil
}

func (m *Machine) prefill(rec model.LoanConfiguration) {
	m.record = &rec
	if rec.HasAmount() {
		m.amount = rec.PrincipalAmount()
	}
	if rec.HasMonths() {
		m.months = rec.NumberOfMonths()
	}
	if rec.HasSalaryDay() {
		m.salaryDay = rec.SalaryDay()
	}
	m.firstDate = rec.FirstRepaymentDate()
	if m.amount.IsPositive() && m.months > 0 {
		m.repayment = m.deps.Calculator.Compute(m.amount, m.months)
	}

	// Only resume past a step whose input actually survived.
	resume := rec.ResumeStep()
	switch {
	case !m.amount.IsPositive():
		resume = valueobject.WizardStepAmount
	case m.months == 0 && resume.Equal(valueobject.WizardStepDate):
		resume = valueobject.WizardStepMonths
	}
	m.step = resume
}

func (m *Machine) resolveCap(ctx context.Context) {
	res := m.deps.Caps.Execute(ctx, m.borrowerID)

	m.mu.Lock()
	m.capRes = res
	m.capReady = true
	snap, observers := m.snapshotLocked(), slices.Clone(m.observers)
	m.mu.Unlock()

	close(m.capDone)
	notify(observers, snap)
}

// CapResolved is closed once the background cap resolution has finished.
func (m *Machine) CapResolved() <-chan struct{} {
	return m.capDone
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned func removes the subscription.
func (m *Machine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, fn)
	idx := len(m.observers) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.observers) {
			m.observers[idx] = func(Snapshot) {}
		}
	}
}

// OnComplete registers the completion callback. It fires at most once.
func (m *Machine) OnComplete(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = fn
}

// Snapshot returns the current session state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Submit validates in against the current step and advances on success.
// Rejected input returns *ValidationError or *CapExceededError and holds the
// step. A failed final write returns *PersistenceError and holds DATE.
func (m *Machine) Submit(ctx context.Context, in Input) error {
	m.mu.Lock()
	step := m.step
	var err error
	switch {
	case step.Equal(valueobject.WizardStepAmount):
		err = m.submitAmount(ctx, in.Amount)
	case step.Equal(valueobject.WizardStepMonths):
		err = m.submitMonths(ctx, in.Months)
	case step.Equal(valueobject.WizardStepDate):
		err = m.submitDate(ctx, in.SalaryDay, in.RepaymentDate)
	default:
		err = ErrAlreadyComplete
	}
	m.recordOutcome(ctx, step, err)

	snap, observers := m.snapshotLocked(), slices.Clone(m.observers)
	pending := m.collector.ClearEvents()
	completed := err == nil && m.step.IsTerminal()
	onComplete := m.onComplete
	m.mu.Unlock()

	m.publish(ctx, pending)
	notify(observers, snap)
	if completed {
		m.completeOnce.Do(func() {
			if onComplete != nil {
				onComplete(snap)
			}
		})
	}
	return err
}

// GoBack returns to AMOUNT or MONTHS from a later, non-terminal step.
// Captured inputs are kept and the persisted step number is not changed.
func (m *Machine) GoBack(target valueobject.WizardStep) error {
	m.mu.Lock()
	if !m.step.CanGoBackTo(target) {
		current := m.step
		m.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", ErrInvalidBackTarget, target, current)
	}
	m.step = target
	m.notice = ""
	snap, observers := m.snapshotLocked(), slices.Clone(m.observers)
	m.mu.Unlock()

	notify(observers, snap)
	return nil
}

// ---------------------------------------------------------------------------
// step handlers, called with mu held
// ---------------------------------------------------------------------------

func (m *Machine) submitAmount(ctx context.Context, raw string) error {
	parsed, err := money.Parse(raw, money.ZAR)
	if errors.Is(err, money.ErrPrecision) {
		return m.reject("principalAmount", "Enter an amount in rands and cents")
	}
	if err != nil {
		return m.reject("principalAmount", "Enter a valid loan amount")
	}
	amount := parsed.Amount()
	if !amount.IsPositive() {
		return m.reject("principalAmount", "Loan amount must be greater than zero")
	}

	if limit := m.capRes.Cap; amount.GreaterThan(limit) {
		m.amount = limit
		m.notice = fmt.Sprintf("The maximum you can borrow is %s. Your amount has been adjusted.", money.FormatZAR(limit))
		return &CapExceededError{Cap: limit}
	}

	m.amount = amount
	if m.months > 0 {
		m.repayment = m.deps.Calculator.Compute(m.amount, m.months)
	}
	m.persistStep(ctx, model.ConfigurationPatch{
		PrincipalAmount: model.Ptr(amount),
		StepNumber:      valueobject.StepNumberAmount,
	})

	m.advance(valueobject.WizardStepMonths)
	return nil
}

func (m *Machine) submitMonths(ctx context.Context, raw string) error {
	months, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return m.reject("numberOfMonths", "Enter a whole number of months")
	}
	maxMonths := m.deps.Calculator.MaxMonths()
	if months < 1 || months > maxMonths {
		return m.reject("numberOfMonths", fmt.Sprintf("Choose a term between 1 and %d months", maxMonths))
	}
	if !m.amount.IsPositive() {
		m.step = valueobject.WizardStepAmount
		return m.reject("principalAmount", "Enter a loan amount first")
	}

	m.months = months
	m.repayment = m.deps.Calculator.Compute(m.amount, months)
	m.persistStep(ctx, model.ConfigurationPatch{
		NumberOfMonths:   model.Ptr(months),
		AmountRepayable:  model.Ptr(m.repayment.TotalRepayable),
		MonthlyRepayment: model.Ptr(m.repayment.MonthlyRepayment),
		EffectiveRate:    model.Ptr(m.repayment.EffectiveRate),
		StepNumber:       valueobject.StepNumberMonths,
	})

	m.advance(valueobject.WizardStepDate)
	return nil
}

func (m *Machine) submitDate(ctx context.Context, rawDay, placeholder string) error {
	day, err := strconv.Atoi(strings.TrimSpace(rawDay))
	if err != nil || day < 1 || day > 31 {
		return m.reject("salaryDay", "Choose a salary day between 1 and 31")
	}
	if strings.TrimSpace(placeholder) == "" {
		return m.reject("repaymentDate", "Select a repayment date")
	}
	if !m.amount.IsPositive() || m.months == 0 {
		m.step = valueobject.WizardStepAmount
		if m.amount.IsPositive() {
			m.step = valueobject.WizardStepMonths
		}
		return m.reject("salaryDay", "Complete the earlier steps first")
	}
	// The cap may have resolved lower after the amount was accepted.
	if limit := m.capRes.Cap; m.amount.GreaterThan(limit) {
		m.amount = limit
		m.step = valueobject.WizardStepAmount
		m.notice = fmt.Sprintf("The maximum you can borrow is %s. Your amount has been adjusted.", money.FormatZAR(limit))
		return &CapExceededError{Cap: limit}
	}

	m.salaryDay = day
	m.firstDate = m.deps.Scheduler.NextFrom(day, m.deps.Clock())
	m.repayment = m.deps.Calculator.Compute(m.amount, m.months)

	patch := model.ConfigurationPatch{
		PrincipalAmount:    model.Ptr(m.amount),
		NumberOfMonths:     model.Ptr(m.months),
		SalaryDay:          model.Ptr(day),
		FirstRepaymentDate: model.Ptr(m.firstDate),
		AmountRepayable:    model.Ptr(m.repayment.TotalRepayable),
		MonthlyRepayment:   model.Ptr(m.repayment.MonthlyRepayment),
		EffectiveRate:      model.Ptr(m.repayment.EffectiveRate),
		StepNumber:         valueobject.StepNumberComplete,
	}
	if err := m.write(ctx, patch); err != nil {
		m.deps.Logger.ErrorContext(ctx, "final loan configuration write failed",
			"borrower_id", m.borrowerID,
			"error", err,
		)
		m.notice = "We could not save your loan details. Please try again."
		return &PersistenceError{Err: err}
	}

	rec := *m.record
	m.collector.Record(event.NewLoanConfigurationCompleted(
		rec.ID(), m.borrowerID,
		m.amount, m.repayment.TotalRepayable, m.repayment.MonthlyRepayment, m.repayment.EffectiveRate,
		m.months, day, m.firstDate.String(),
		m.deps.Clock(),
	))

	m.advance(valueobject.WizardStepComplete)
	return nil
}

func (m *Machine) reject(field, message string) error {
	m.notice = message
	return &ValidationError{Field: field, Message: message}
}

func (m *Machine) advance(next valueobject.WizardStep) {
	m.step = next
	m.notice = ""
}

// persistStep writes an intermediate step. Failures are logged only; the
// final step writes the complete snapshot.
func (m *Machine) persistStep(ctx context.Context, patch model.ConfigurationPatch) {
	if err := m.write(ctx, patch); err != nil {
		m.deps.Logger.WarnContext(ctx, "intermediate loan configuration write failed",
			"borrower_id", m.borrowerID,
			"step_number", patch.StepNumber,
			"error", err,
		)
	}
}

// write applies patch to the borrower's record, creating it when the
// initial load failed. An intermediate write that hits a version conflict
// is retried once against the reloaded record; the final write reports the
// conflict after refreshing its version so a retry can succeed.
func (m *Machine) write(ctx context.Context, patch model.ConfigurationPatch) error {
	if m.record == nil {
		rec, err := m.deps.Repository.FindOrCreate(ctx, m.borrowerID)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		m.record = &rec
	}

	updated, err := m.deps.Repository.Update(ctx, m.record.ID(), m.record.Version(), patch)
	if errors.Is(err, model.ErrVersionConflict) {
		fresh, findErr := m.deps.Repository.FindByBorrowerID(ctx, m.borrowerID)
		if findErr != nil {
			return fmt.Errorf("reload configuration: %w", findErr)
		}
		m.record = &fresh
		if patch.StepNumber >= valueobject.StepNumberComplete {
			return fmt.Errorf("update configuration: %w", err)
		}
		updated, err = m.deps.Repository.Update(ctx, fresh.ID(), fresh.Version(), patch)
	}
	if err != nil {
		return fmt.Errorf("update configuration: %w", err)
	}

	m.record = &updated
	m.collector.Record(event.NewLoanConfigurationStepRecorded(updated.ID(), m.borrowerID, patch.StepNumber, m.deps.Clock()))
	return nil
}

func (m *Machine) recordOutcome(ctx context.Context, step valueobject.WizardStep, err error) {
	var (
		validation *ValidationError
		capErr     *CapExceededError
		persist    *PersistenceError
	)
	switch {
	case err == nil:
		m.deps.Metrics.StepAccepted(ctx, step.String())
	case errors.As(err, &validation):
		m.deps.Metrics.StepRejected(ctx, step.String(), "validation")
	case errors.As(err, &capErr):
		m.deps.Metrics.StepRejected(ctx, step.String(), "cap_exceeded")
	case errors.As(err, &persist):
		m.deps.Metrics.StepRejected(ctx, step.String(), "persistence")
	default:
		m.deps.Metrics.StepRejected(ctx, step.String(), "invalid_state")
	}
}

func (m *Machine) publish(ctx context.Context, pending []event.DomainEvent) {
	if len(pending) == 0 || m.deps.Publisher == nil {
		return
	}
	if err := m.deps.Publisher.Publish(ctx, pending...); err != nil {
		m.deps.Logger.WarnContext(ctx, "publish loan configuration events failed",
			"borrower_id", m.borrowerID,
			"count", len(pending),
			"error", err,
		)
	}
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
