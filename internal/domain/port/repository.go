package port

import (
	"context"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/event"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
)

// LoanConfigurationRepository persists one configuration record per borrower.
type LoanConfigurationRepository interface {
	// FindOrCreate returns the borrower's record, creating an empty one at
	// step zero when none exists.
	FindOrCreate(ctx context.Context, borrowerID string) (model.LoanConfiguration, error)
	// FindByBorrowerID returns model.ErrConfigurationNotFound when absent.
	FindByBorrowerID(ctx context.Context, borrowerID string) (model.LoanConfiguration, error)
	// Update applies patch when the stored version equals expectedVersion and
	// returns the updated record. A stale version yields model.ErrVersionConflict.
	Update(ctx context.Context, id string, expectedVersion int, patch model.ConfigurationPatch) (model.LoanConfiguration, error)
}

// IncomeSignalSource provides the most recently captured income snapshot for
// a borrower. A nil snapshot with a nil error means no data.
type IncomeSignalSource interface {
	LatestIncomeSnapshot(ctx context.Context, borrowerID string) (*model.IncomeSnapshot, error)
}

// AssessmentProvider supplies the composite risk assessment for a borrower.
// How the score is produced is outside this service.
type AssessmentProvider interface {
	Assess(ctx context.Context, borrowerID string) (model.RiskAssessment, error)
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...event.DomainEvent) error { return nil }
