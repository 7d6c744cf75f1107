package wizard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/service"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/valueobject"
)

var sast = time.FixedZone("SAST", 2*60*60)

// --- Mock implementations ---

type mockRepository struct {
	mu              sync.Mutex
	records         map[string]model.LoanConfiguration
	findOrCreateErr func(call int) error
	updateFunc      func(call int, patch model.ConfigurationPatch) error
	findOrCreates   int
	updates         int
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[string]model.LoanConfiguration)}
}

func (m *mockRepository) seed(rec model.LoanConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.BorrowerID()] = rec
}

// bump simulates a concurrent writer.
func (m *mockRepository) bump(borrowerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[borrowerID]
	m.records[borrowerID] = rec.Apply(model.ConfigurationPatch{}, time.Now())
}

func (m *mockRepository) FindOrCreate(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findOrCreates++
	if m.findOrCreateErr != nil {
		if err := m.findOrCreateErr(m.findOrCreates); err != nil {
			return model.LoanConfiguration{}, err
		}
	}
	if rec, ok := m.records[borrowerID]; ok {
		return rec, nil
	}
	rec, err := model.NewLoanConfiguration(borrowerID, time.Now())
	if err != nil {
		return model.LoanConfiguration{}, err
	}
	m.records[borrowerID] = rec
	return rec, nil
}

func (m *mockRepository) FindByBorrowerID(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[borrowerID]
	if !ok {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	return rec, nil
}

func (m *mockRepository) Update(_ context.Context, id string, expectedVersion int, patch model.ConfigurationPatch) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.updateFunc != nil {
		if err := m.updateFunc(m.updates, patch); err != nil {
			return model.LoanConfiguration{}, err
		}
	}
	for borrowerID, rec := range m.records {
		if rec.ID() != id {
			continue
		}
		if rec.Version() != expectedVersion {
			return model.LoanConfiguration{}, model.ErrVersionConflict
		}
		updated := rec.Apply(patch, time.Now())
		m.records[borrowerID] = updated
		return updated, nil
	}
	return model.LoanConfiguration{}, model.ErrConfigurationNotFound
}

func (m *mockRepository) stored(t *testing.T, borrowerID string) model.LoanConfiguration {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[borrowerID]
	require.True(t, ok, "no record for %s", borrowerID)
	return rec
}

// fakeCaps resolves to result once release is closed (immediately when nil).
type fakeCaps struct {
	fallback service.CapResolution
	result   service.CapResolution
	release  chan struct{}
}

func (f *fakeCaps) Default() service.CapResolution { return f.fallback }

func (f *fakeCaps) Execute(ctx context.Context, _ string) service.CapResolution {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return f.fallback
		}
	}
	return f.result
}

func defaultCaps() *fakeCaps {
	res := service.NewBorrowingCapResolver(service.DefaultCapPolicy()).Default()
	return &fakeCaps{fallback: res, result: res}
}

func incomeCap(amount int64) service.CapResolution {
	return service.CapResolution{
		Cap:         decimal.NewFromInt(amount),
		Rationale:   valueobject.CapRationaleIncomeDerived,
		IncomeShare: decimal.RequireFromString("0.2"),
	}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, evts ...event.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, evts...)
	return nil
}

func (m *mockPublisher) count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type mockMetrics struct {
	mu       sync.Mutex
	accepted []string
	rejected []string
}

func (m *mockMetrics) StepAccepted(_ context.Context, step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted = append(m.accepted, step)
}

func (m *mockMetrics) StepRejected(_ context.Context, step, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, step+":"+reason)
}

func (m *mockMetrics) CapResolved(context.Context, string)  {}
func (m *mockMetrics) DecisionMade(context.Context, string) {}

// --- Helpers ---

type fixture struct {
	repo      *mockRepository
	caps      *fakeCaps
	publisher *mockPublisher
	metrics   *mockMetrics
	now       time.Time
}

func newFixture() *fixture {
	return &fixture{
		repo:      newMockRepository(),
		caps:      defaultCaps(),
		publisher: &mockPublisher{},
		metrics:   &mockMetrics{},
		// Nine days before the 25th.
		now: time.Date(2024, time.March, 16, 9, 30, 0, 0, sast),
	}
}

func (f *fixture) deps() wizard.Dependencies {
	return wizard.Dependencies{
		Repository: f.repo,
		Caps:       f.caps,
		Calculator: service.NewFeeCalculator(service.DefaultFeeSchedule()),
		Scheduler:  service.NewSalaryScheduler(service.DefaultMinLeadDays, sast),
		Publisher:  f.publisher,
		Metrics:    f.metrics,
		Clock:      func() time.Time { return f.now },
	}
}

func (f *fixture) start(t *testing.T, borrowerID string) *wizard.Machine {
	t.Helper()
	m, err := wizard.New(context.Background(), f.deps(), borrowerID)
	require.NoError(t, err)
	if f.caps.release == nil {
		waitCap(t, m)
	}
	return m
}

func waitCap(t *testing.T, m *wizard.Machine) {
	t.Helper()
	select {
	case <-m.CapResolved():
	case <-time.After(2 * time.Second):
		t.Fatal("cap resolution did not finish")
	}
}

func submit(t *testing.T, m *wizard.Machine, in wizard.Input) {
	t.Helper()
	require.NoError(t, m.Submit(context.Background(), in))
}

func dateInput(day string) wizard.Input {
	return wizard.Input{SalaryDay: day, RepaymentDate: "selected"}
}

// --- Tests ---

func TestMachine_EndToEnd(t *testing.T) {
	f := newFixture()
	m := f.start(t, "borrower-1")

	var completions []wizard.Snapshot
	m.OnComplete(func(s wizard.Snapshot) { completions = append(completions, s) })

	snap := m.Snapshot()
	assert.Equal(t, valueobject.WizardStepAmount, snap.Step)
	assert.Equal(t, "Maximum loan cap: R10,000.00", snap.Message)

	// Above the cap: clamped and held.
	err := m.Submit(context.Background(), wizard.Input{Amount: "15000"})
	var capErr *wizard.CapExceededError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Cap.Equal(decimal.NewFromInt(10000)))

	snap = m.Snapshot()
	assert.Equal(t, valueobject.WizardStepAmount, snap.Step)
	assert.True(t, snap.PrincipalAmount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "The maximum you can borrow is R10,000.00. Your amount has been adjusted.", snap.Message)

	submit(t, m, wizard.Input{Amount: "10000"})
	assert.Equal(t, valueobject.WizardStepMonths, m.Snapshot().Step)

	submit(t, m, wizard.Input{Months: "6"})
	snap = m.Snapshot()
	assert.Equal(t, valueobject.WizardStepDate, snap.Step)
	assert.True(t, snap.Repayment.TotalRepayable.Equal(decimal.NewFromInt(14069)))
	assert.Equal(t, "Monthly repayment: R2,344.83 (set salary day below)", snap.Message)

	submit(t, m, dateInput("25"))
	snap = m.Snapshot()
	assert.Equal(t, valueobject.WizardStepComplete, snap.Step)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.April, Day: 25}, snap.FirstRepaymentDate)
	assert.Equal(t, 3, snap.StepNumber)
	assert.Equal(t, "First repayment of R2,344.83 on the 25th of April", snap.Message)

	require.Len(t, completions, 1)
	assert.Equal(t, valueobject.WizardStepComplete, completions[0].Step)

	assert.ErrorIs(t, m.Submit(context.Background(), dateInput("25")), wizard.ErrAlreadyComplete)
	assert.Len(t, completions, 1)

	stored := f.repo.stored(t, "borrower-1")
	assert.True(t, stored.IsComplete())
	assert.NotNil(t, stored.CompletedAt())
	assert.True(t, stored.PrincipalAmount().Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 6, stored.NumberOfMonths())
	assert.Equal(t, 25, stored.SalaryDay())
	assert.True(t, stored.AmountRepayable().Equal(decimal.NewFromInt(14069)))

	assert.Equal(t, 3, f.publisher.count(event.TypeLoanConfigurationStepRecorded))
	assert.Equal(t, 1, f.publisher.count(event.TypeLoanConfigurationCompleted))
	assert.Equal(t, []string{"AMOUNT", "MONTHS", "DATE"}, f.metrics.accepted)
	assert.Equal(t, []string{"AMOUNT:cap_exceeded", "COMPLETE:invalid_state"}, f.metrics.rejected)
}

func TestMachine_Resume(t *testing.T) {
	created := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	record := func(principal int64, months, step int) model.LoanConfiguration {
		return model.ReconstructLoanConfiguration(
			"cfg-1", "borrower-1",
			decimal.NewFromInt(principal), months, 0, civil.Date{},
			decimal.Zero, decimal.Zero, decimal.Zero,
			step, 3, created, created, nil,
		)
	}

	tests := []struct {
		name   string
		record model.LoanConfiguration
		want   valueobject.WizardStep
	}{
		{"fresh record", record(0, 0, 0), valueobject.WizardStepAmount},
		{"amount accepted", record(5000, 0, 1), valueobject.WizardStepMonths},
		{"term accepted", record(5000, 6, 2), valueobject.WizardStepDate},
		{"completed", record(5000, 6, 3), valueobject.WizardStepDate},
		{"term step without amount", record(0, 6, 2), valueobject.WizardStepAmount},
		{"term step without months", record(5000, 0, 2), valueobject.WizardStepMonths},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.seed(tt.record)
			m := f.start(t, "borrower-1")

			snap := m.Snapshot()
			assert.Equal(t, tt.want, snap.Step)
			assert.Equal(t, "cfg-1", snap.ConfigurationID)
		})
	}

	t.Run("prefills derived values", func(t *testing.T) {
		f := newFixture()
		f.repo.seed(record(5000, 6, 2))
		m := f.start(t, "borrower-1")

		snap := m.Snapshot()
		assert.True(t, snap.PrincipalAmount.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, 6, snap.NumberOfMonths)
		assert.True(t, snap.Repayment.TotalRepayable.Equal(decimal.NewFromInt(7069)))

		submit(t, m, dateInput("1"))
		assert.Equal(t, civil.Date{Year: 2024, Month: time.April, Day: 1}, m.Snapshot().FirstRepaymentDate)
	})
}

func TestMachine_Validation(t *testing.T) {
	tests := []struct {
		name  string
		setup []wizard.Input
		input wizard.Input
		field string
	}{
		{"empty amount", nil, wizard.Input{Amount: ""}, "principalAmount"},
		{"non numeric amount", nil, wizard.Input{Amount: "ten"}, "principalAmount"},
		{"zero amount", nil, wizard.Input{Amount: "0"}, "principalAmount"},
		{"negative amount", nil, wizard.Input{Amount: "-50"}, "principalAmount"},
		{"sub-cent amount", nil, wizard.Input{Amount: "1e-5000000"}, "principalAmount"},
		{"oversized amount", nil, wizard.Input{Amount: "1e5000000"}, "principalAmount"},
		{"non numeric months", []wizard.Input{{Amount: "500"}}, wizard.Input{Months: "six"}, "numberOfMonths"},
		{"zero months", []wizard.Input{{Amount: "500"}}, wizard.Input{Months: "0"}, "numberOfMonths"},
		{"months above maximum", []wizard.Input{{Amount: "500"}}, wizard.Input{Months: "25"}, "numberOfMonths"},
		{"salary day zero", []wizard.Input{{Amount: "500"}, {Months: "3"}}, dateInput("0"), "salaryDay"},
		{"salary day above 31", []wizard.Input{{Amount: "500"}, {Months: "3"}}, dateInput("32"), "salaryDay"},
		{"missing repayment date", []wizard.Input{{Amount: "500"}, {Months: "3"}}, wizard.Input{SalaryDay: "15"}, "repaymentDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			m := f.start(t, "borrower-1")
			for _, in := range tt.setup {
				submit(t, m, in)
			}
			before := m.Snapshot().Step

			err := m.Submit(context.Background(), tt.input)

			var verr *wizard.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			snap := m.Snapshot()
			assert.Equal(t, before, snap.Step)
			assert.Equal(t, verr.Message, snap.Message)
		})
	}
}

func TestMachine_AmountAtCapIsAccepted(t *testing.T) {
	f := newFixture()
	m := f.start(t, "borrower-1")

	submit(t, m, wizard.Input{Amount: "R10,000.00"})
	assert.Equal(t, valueobject.WizardStepMonths, m.Snapshot().Step)
}

func TestMachine_GoBack(t *testing.T) {
	f := newFixture()
	m := f.start(t, "borrower-1")

	assert.ErrorIs(t, m.GoBack(valueobject.WizardStepAmount), wizard.ErrInvalidBackTarget)

	submit(t, m, wizard.Input{Amount: "2000"})
	submit(t, m, wizard.Input{Months: "4"})
	stepBefore := f.repo.stored(t, "borrower-1").StepNumber()

	require.NoError(t, m.GoBack(valueobject.WizardStepMonths))
	snap := m.Snapshot()
	assert.Equal(t, valueobject.WizardStepMonths, snap.Step)
	assert.Equal(t, 4, snap.NumberOfMonths)
	assert.True(t, snap.PrincipalAmount.Equal(decimal.NewFromInt(2000)))

	require.NoError(t, m.GoBack(valueobject.WizardStepAmount))
	assert.Equal(t, valueobject.WizardStepAmount, m.Snapshot().Step)
	assert.ErrorIs(t, m.GoBack(valueobject.WizardStepMonths), wizard.ErrInvalidBackTarget)
	assert.Equal(t, stepBefore, f.repo.stored(t, "borrower-1").StepNumber())

	// Changing the amount recomputes against the kept term.
	submit(t, m, wizard.Input{Amount: "1000"})
	assert.True(t, m.Snapshot().Repayment.TotalRepayable.Equal(decimal.NewFromInt(1369)))
	submit(t, m, wizard.Input{Months: "4"})
	submit(t, m, dateInput("10"))

	assert.ErrorIs(t, m.GoBack(valueobject.WizardStepAmount), wizard.ErrInvalidBackTarget)
}

func TestMachine_FinalWriteFailure(t *testing.T) {
	f := newFixture()
	failures := 1
	f.repo.updateFunc = func(_ int, patch model.ConfigurationPatch) error {
		if patch.StepNumber == valueobject.StepNumberComplete && failures > 0 {
			failures--
			return fmt.Errorf("connection reset")
		}
		return nil
	}
	m := f.start(t, "borrower-1")
	completions := 0
	m.OnComplete(func(wizard.Snapshot) { completions++ })

	submit(t, m, wizard.Input{Amount: "3000"})
	submit(t, m, wizard.Input{Months: "3"})

	err := m.Submit(context.Background(), dateInput("25"))
	var perr *wizard.PersistenceError
	require.True(t, errors.As(err, &perr))
	snap := m.Snapshot()
	assert.Equal(t, valueobject.WizardStepDate, snap.Step)
	assert.Equal(t, "We could not save your loan details. Please try again.", snap.Message)
	assert.Equal(t, 0, completions)
	assert.False(t, f.repo.stored(t, "borrower-1").IsComplete())

	submit(t, m, dateInput("25"))
	assert.Equal(t, valueobject.WizardStepComplete, m.Snapshot().Step)
	assert.Equal(t, 1, completions)
	assert.Equal(t, []string{"DATE:persistence"}, f.metrics.rejected)
}

func TestMachine_IntermediateWriteFailureDoesNotBlock(t *testing.T) {
	f := newFixture()
	f.repo.updateFunc = func(_ int, patch model.ConfigurationPatch) error {
		if patch.StepNumber < valueobject.StepNumberComplete {
			return fmt.Errorf("timeout")
		}
		return nil
	}
	m := f.start(t, "borrower-1")

	submit(t, m, wizard.Input{Amount: "3000"})
	submit(t, m, wizard.Input{Months: "3"})
	submit(t, m, dateInput("25"))

	stored := f.repo.stored(t, "borrower-1")
	assert.True(t, stored.IsComplete())
	assert.True(t, stored.PrincipalAmount().Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 3, stored.NumberOfMonths())
}

func TestMachine_VersionConflict(t *testing.T) {
	t.Run("intermediate write retries against the reloaded record", func(t *testing.T) {
		f := newFixture()
		m := f.start(t, "borrower-1")
		f.repo.bump("borrower-1")

		submit(t, m, wizard.Input{Amount: "4000"})

		stored := f.repo.stored(t, "borrower-1")
		assert.True(t, stored.PrincipalAmount().Equal(decimal.NewFromInt(4000)))
		assert.Equal(t, 1, stored.StepNumber())
	})

	t.Run("final write reports the conflict and succeeds on retry", func(t *testing.T) {
		f := newFixture()
		m := f.start(t, "borrower-1")
		submit(t, m, wizard.Input{Amount: "4000"})
		submit(t, m, wizard.Input{Months: "2"})
		f.repo.bump("borrower-1")

		err := m.Submit(context.Background(), dateInput("25"))

		var perr *wizard.PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.ErrorIs(t, err, model.ErrVersionConflict)
		assert.Equal(t, valueobject.WizardStepDate, m.Snapshot().Step)

		submit(t, m, dateInput("25"))
		assert.Equal(t, valueobject.WizardStepComplete, m.Snapshot().Step)
	})
}

func TestMachine_LateCap(t *testing.T) {
	f := newFixture()
	f.caps.result = incomeCap(2000)
	f.caps.release = make(chan struct{})
	m := f.start(t, "borrower-1")

	assert.False(t, m.Snapshot().CapResolved)
	submit(t, m, wizard.Input{Amount: "5000"})
	submit(t, m, wizard.Input{Months: "6"})

	close(f.caps.release)
	waitCap(t, m)
	snap := m.Snapshot()
	assert.True(t, snap.CapResolved)
	assert.True(t, snap.Cap.Cap.Equal(decimal.NewFromInt(2000)))

	err := m.Submit(context.Background(), dateInput("25"))

	var capErr *wizard.CapExceededError
	require.True(t, errors.As(err, &capErr))
	snap = m.Snapshot()
	assert.Equal(t, valueobject.WizardStepAmount, snap.Step)
	assert.True(t, snap.PrincipalAmount.Equal(decimal.NewFromInt(2000)))
	assert.False(t, f.repo.stored(t, "borrower-1").IsComplete())
}

func TestMachine_IncomeCapNotice(t *testing.T) {
	f := newFixture()
	f.caps.result = incomeCap(2000)
	m := f.start(t, "borrower-1")

	assert.Equal(t, "Maximum loan cap: R2,000.00 (20% of net monthly income)", m.Snapshot().Message)
}

func TestMachine_LoadFailure(t *testing.T) {
	f := newFixture()
	f.repo.findOrCreateErr = func(call int) error {
		if call == 1 {
			return fmt.Errorf("database unavailable")
		}
		return nil
	}
	m := f.start(t, "borrower-1")

	snap := m.Snapshot()
	assert.Equal(t, valueobject.WizardStepAmount, snap.Step)
	assert.Empty(t, snap.ConfigurationID)

	submit(t, m, wizard.Input{Amount: "1500"})
	assert.NotEmpty(t, m.Snapshot().ConfigurationID)
	assert.Equal(t, 1, f.repo.stored(t, "borrower-1").StepNumber())
}

func TestMachine_Subscribe(t *testing.T) {
	f := newFixture()
	m := f.start(t, "borrower-1")

	var seen []valueobject.WizardStep
	unsubscribe := m.Subscribe(func(s wizard.Snapshot) { seen = append(seen, s.Step) })

	_ = m.Submit(context.Background(), wizard.Input{Amount: "abc"})
	submit(t, m, wizard.Input{Amount: "1500"})
	require.NoError(t, m.GoBack(valueobject.WizardStepAmount))

	assert.Equal(t, []valueobject.WizardStep{
		valueobject.WizardStepAmount,
		valueobject.WizardStepMonths,
		valueobject.WizardStepAmount,
	}, seen)

	unsubscribe()
	submit(t, m, wizard.Input{Amount: "1500"})
	assert.Len(t, seen, 3)
}

func TestMachine_PublishFailureIsTolerated(t *testing.T) {
	f := newFixture()
	f.publisher.err = fmt.Errorf("broker down")
	m := f.start(t, "borrower-1")

	submit(t, m, wizard.Input{Amount: "1500"})
	assert.Equal(t, valueobject.WizardStepMonths, m.Snapshot().Step)
}

func TestNew_RequiresBorrower(t *testing.T) {
	f := newFixture()
	_, err := wizard.New(context.Background(), f.deps(), "")
	require.Error(t, err)
}
