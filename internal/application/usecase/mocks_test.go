package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
)

// --- Mock implementations ---

type mockIncomeSource struct {
	latestFunc func(ctx context.Context, borrowerID string) (*model.IncomeSnapshot, error)
}

func (m *mockIncomeSource) LatestIncomeSnapshot(ctx context.Context, borrowerID string) (*model.IncomeSnapshot, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, borrowerID)
	}
	return nil, nil
}

type mockAssessmentProvider struct {
	assessFunc func(ctx context.Context, borrowerID string) (model.RiskAssessment, error)
}

func (m *mockAssessmentProvider) Assess(ctx context.Context, borrowerID string) (model.RiskAssessment, error) {
	if m.assessFunc != nil {
		return m.assessFunc(ctx, borrowerID)
	}
	return model.RiskAssessment{
		BorrowerID: borrowerID,
		Score:      85,
		Categories: []model.RiskCategory{
			{Label: "Credit Profile", Value: 88, Weight: 40, Metrics: []model.RiskMetric{{Name: "Accounts", Value: "4"}}},
		},
	}, nil
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

type mockMetrics struct {
	mu        sync.Mutex
	caps      []string
	decisions []string
}

func (m *mockMetrics) StepAccepted(context.Context, string)         {}
func (m *mockMetrics) StepRejected(context.Context, string, string) {}

func (m *mockMetrics) CapResolved(_ context.Context, rationale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caps = append(m.caps, rationale)
}

func (m *mockMetrics) DecisionMade(_ context.Context, band string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, band)
}

// mockConfigurationRepository keeps records in a map keyed by borrower.
type mockConfigurationRepository struct {
	mu      sync.Mutex
	records map[string]model.LoanConfiguration
}

func newMockConfigurationRepository() *mockConfigurationRepository {
	return &mockConfigurationRepository{records: make(map[string]model.LoanConfiguration)}
}

func (m *mockConfigurationRepository) FindOrCreate(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *mockConfigurationRepository) FindByBorrowerID(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[borrowerID]
	if !ok {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	return rec, nil
}

func (m *mockConfigurationRepository) Update(_ context.Context, id string, expectedVersion int, patch model.ConfigurationPatch) (model.LoanConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	return model.LoanConfiguration{}, fmt.Errorf("configuration %s: %w", id, model.ErrConfigurationNotFound)
}
